// Package metrics exposes Prometheus instrumentation for the risk engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed risk analyses by recommended action.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "analyses_total",
			Help:      "Total number of completed risk analyses",
		},
		[]string{"action"},
	)

	// FactorsFiredTotal counts how often each risk factor fires.
	FactorsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "factors_fired_total",
			Help:      "Total number of risk factor firings by factor name",
		},
		[]string{"factor"},
	)

	// AnalysisDuration observes end-to-end analysis latency.
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "riskgate",
			Name:      "analysis_duration_seconds",
			Help:      "Risk analysis latency in seconds",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	// RejectedInputsTotal counts attempts refused before analysis.
	RejectedInputsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "rejected_inputs_total",
			Help:      "Total number of login attempts rejected as unscoreable",
		},
	)

	// OutcomesRecordedTotal counts committed login outcomes by result.
	OutcomesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "outcomes_recorded_total",
			Help:      "Total number of committed login outcomes",
		},
		[]string{"outcome"},
	)
)
