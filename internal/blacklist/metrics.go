// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package blacklist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// denials counts rule denials by action. A vetoed event with two denying
	// rules counts twice.
	denials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockguard_blacklist_denials_total",
		Help: "Total number of blacklist rule denials",
	}, []string{"action"})

	// suppressed counts denial messages dropped by repeat suppression.
	suppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockguard_blacklist_messages_suppressed_total",
		Help: "Total number of blacklist messages dropped as repeats",
	})

	// rulesLoaded reports the size of the active rule set.
	rulesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockguard_blacklist_rules",
		Help: "Number of rules in the active blacklist",
	})
)
