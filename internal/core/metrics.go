package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_assessments_total",
		Help: "Risk assessments by outcome",
	}, []string{"outcome"})

	scenarioDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "risk_scenario_duration_seconds",
		Help:    "Time spent scoring one scenario",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	}, []string{"variant"})

	degradedResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_degraded_results_total",
		Help: "Results produced from conservative defaults or synthetic data",
	}, []string{"reason"})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_source_failures_total",
		Help: "Aggregator source fetch failures",
	}, []string{"source"})
)
