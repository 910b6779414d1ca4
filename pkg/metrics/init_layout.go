package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessongraph_layout_computations_total",
			Help: "Layout computations by cache outcome",
		},
		[]string{"cache"}, // hit, miss
	)

	r.LayoutDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lessongraph_layout_duration_seconds",
			Help:    "Time spent computing a layout",
			Buckets: []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	r.LayoutIssuesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessongraph_layout_issues_total",
			Help: "Malformed layout input dropped from the result",
		},
		[]string{"kind"},
	)
}

func (r *Registry) initGenerationMetrics() {
	r.GenerationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessongraph_generations_total",
			Help: "Recommended path generations",
		},
		[]string{"result"}, // ok, error, validation, rejected
	)

	r.GenerationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lessongraph_generation_duration_seconds",
			Help:    "Time spent analyzing a record",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.GenerationInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "lessongraph_generation_in_flight",
			Help: "Owners with a generation outstanding",
		},
	)
}
