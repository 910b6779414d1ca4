package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initMutationMetrics() {
	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessongraph_mutations_total",
			Help: "Total number of dispatched actions",
		},
		[]string{"action", "result"}, // result: ok, validation, not_found
	)

	r.MutationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lessongraph_mutation_duration_seconds",
			Help:    "Time spent applying an action",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"action"},
	)

	r.PathsLoaded = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lessongraph_paths_loaded",
			Help: "Number of learning paths held in memory",
		},
	)

	r.PathNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lessongraph_path_nodes",
			Help: "Activity nodes in a learning path",
		},
		[]string{"owner"},
	)

	r.PathEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lessongraph_path_edges",
			Help: "Edges in a learning path",
		},
		[]string{"owner"},
	)
}
