package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPersistenceMetrics() {
	r.PersistenceOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessongraph_persistence_operations_total",
			Help: "Persistence adapter operations",
		},
		[]string{"operation", "status"}, // operation: save, load, load_all, remove, clear_all; status: ok, error, missing, corrupt
	)

	r.PersistenceDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lessongraph_persistence_duration_seconds",
			Help:    "Persistence operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	r.PersistenceBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lessongraph_persistence_record_bytes",
			Help:    "Size of saved path records",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)

	r.AutosavePending = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lessongraph_autosave_pending",
			Help: "Owners with a debounced save waiting to fire",
		},
	)

	r.AutosaveCoalescedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "lessongraph_autosave_coalesced_total",
			Help: "Save requests absorbed by an already pending save",
		},
	)
}
