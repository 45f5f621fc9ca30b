// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_turns_completed_total",
			Help: "Total number of chat turns answered, by turn kind and result key",
		},
		[]string{"turn_kind", "result"},
	)

	TurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_turns_failed_total",
			Help: "Total number of chat turns that ended in an error result",
		},
		[]string{"turn_kind", "error_code"},
	)

	AdmissionRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_admission_rejected_total",
			Help: "Total number of turns rejected because another turn was in flight",
		},
	)

	TurnsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "concierge_turns_in_flight",
			Help: "Number of admitted turns currently being processed",
		},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "concierge_completion_duration_seconds",
			Help:    "Duration of completion provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"purpose", "status"},
	)

	CatalogReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_catalog_reads_total",
			Help: "Catalog reads by source (cache, store, client)",
		},
		[]string{"source"},
	)
)
