// Package metrics exposes Prometheus instrumentation for the lesson graph
// engine: mutations, history, persistence, layout and path generation.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	// Mutation metrics
	MutationsTotal   *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec
	PathsLoaded      prometheus.Gauge
	PathNodes        *prometheus.GaugeVec
	PathEdges        *prometheus.GaugeVec

	// History metrics
	HistoryOperationsTotal *prometheus.CounterVec
	HistoryDepth           prometheus.Gauge

	// Persistence metrics
	PersistenceOperationsTotal *prometheus.CounterVec
	PersistenceDuration        *prometheus.HistogramVec
	PersistenceBytes           prometheus.Histogram
	AutosavePending            prometheus.Gauge
	AutosaveCoalescedTotal     prometheus.Counter

	// Layout metrics
	LayoutComputationsTotal *prometheus.CounterVec
	LayoutDuration          prometheus.Histogram
	LayoutIssuesTotal       *prometheus.CounterVec

	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	GenerationInFlight prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.initMutationMetrics()
	r.initHistoryMetrics()
	r.initPersistenceMetrics()
	r.initLayoutMetrics()
	r.initGenerationMetrics()
	r.initHTTPMetrics()

	return r
}

// WithRuntimeCollectors registers the Go runtime and process collectors
func (r *Registry) WithRuntimeCollectors() *Registry {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the registry in exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
