package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initHistoryMetrics() {
	r.HistoryOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessongraph_history_operations_total",
			Help: "Undo/redo/snapshot operations",
		},
		[]string{"operation", "result"}, // operation: snapshot, undo, redo, reset; result: ok, noop
	)

	r.HistoryDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lessongraph_history_depth",
			Help: "Snapshots retained for the active owner",
		},
	)
}
