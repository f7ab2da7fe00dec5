// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decisions counts gate decisions by event kind and outcome.
	decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockguard_gate_decisions_total",
		Help: "Total number of gate decisions",
	}, []string{"event", "outcome"})

	// vetoes counts denials by the step that vetoed.
	vetoes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockguard_gate_vetoes_total",
		Help: "Total number of vetoes by pipeline step",
	}, []string{"event", "step"})

	// decisionDuration tracks how long a pipeline takes to decide.
	decisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blockguard_gate_decision_duration_seconds",
		Help:    "Histogram of gate decision latency in seconds",
		Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3},
	}, []string{"event"})
)
