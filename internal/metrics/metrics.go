// internal/metrics/metrics.go

// Package metrics registers the engine's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalsTracked counts inbound hashtag signals by outcome.
	SignalsTracked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yapper_trend_signals_tracked_total",
		Help: "Inbound hashtag signals recorded by the candidate tracker.",
	}, []string{"outcome"})

	// CalculationRuns counts calculation passes by outcome.
	CalculationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yapper_trend_calculation_runs_total",
		Help: "Trend calculation passes by outcome.",
	}, []string{"outcome"})

	// CalculationDuration observes the wall-clock time of a full
	// calculation pass.
	CalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yapper_trend_calculation_duration_seconds",
		Help:    "Duration of a full trend calculation pass.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	// TrendingListSize reports the member count of each ranked list
	// after its latest replacement.
	TrendingListSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "yapper_trending_list_size",
		Help: "Members in each trending list after the latest calculation.",
	}, []string{"scope"})
)
