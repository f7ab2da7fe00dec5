// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package region

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queryDuration tracks the latency of point-containment queries.
	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blockguard_region_query_duration_seconds",
		Help:    "Histogram of region index query latency in seconds",
		Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3},
	})

	// indexSize reports the number of regions in the most recently published snapshot.
	indexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blockguard_region_index_size",
		Help: "Number of regions in the region index",
	})

	// loadAttempts counts region repository load attempts by outcome.
	loadAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blockguard_region_load_attempts_total",
		Help: "Total number of region repository load attempts",
	}, []string{"outcome"})
)
