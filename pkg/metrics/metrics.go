package metrics

import (
	"strconv"
	"time"
)

// Result labels
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultNotFound   = "not_found"
	ResultError      = "error"
	ResultNoop       = "noop"
)

// RecordMutation records a dispatched action
func (r *Registry) RecordMutation(action, result string, duration time.Duration) {
	r.MutationsTotal.WithLabelValues(action, result).Inc()
	r.MutationDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// UpdatePathSize publishes the node and edge counts of an owner's path
func (r *Registry) UpdatePathSize(owner string, nodes, edges int) {
	r.PathNodes.WithLabelValues(owner).Set(float64(nodes))
	r.PathEdges.WithLabelValues(owner).Set(float64(edges))
}

// ForgetPath drops the per-owner series of a deleted path
func (r *Registry) ForgetPath(owner string) {
	r.PathNodes.DeleteLabelValues(owner)
	r.PathEdges.DeleteLabelValues(owner)
}

// RecordHistory records an undo/redo/snapshot operation and the new depth
func (r *Registry) RecordHistory(operation string, ok bool, depth int) {
	result := ResultOK
	if !ok {
		result = ResultNoop
	}
	r.HistoryOperationsTotal.WithLabelValues(operation, result).Inc()
	r.HistoryDepth.Set(float64(depth))
}

// RecordPersistence records a persistence adapter operation
func (r *Registry) RecordPersistence(operation, status string, duration time.Duration) {
	r.PersistenceOperationsTotal.WithLabelValues(operation, status).Inc()
	r.PersistenceDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLayout records a layout computation
func (r *Registry) RecordLayout(cacheHit bool, duration time.Duration, issueKinds []string) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	r.LayoutComputationsTotal.WithLabelValues(cache).Inc()
	r.LayoutDuration.Observe(duration.Seconds())
	for _, kind := range issueKinds {
		r.LayoutIssuesTotal.WithLabelValues(kind).Inc()
	}
}

// RecordGeneration records the outcome of a path generation
func (r *Registry) RecordGeneration(result string, duration time.Duration) {
	r.GenerationsTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		r.GenerationDuration.Observe(duration.Seconds())
	}
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
