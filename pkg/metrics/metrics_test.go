package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	if r.MutationsTotal == nil || r.HistoryDepth == nil || r.PersistenceOperationsTotal == nil {
		t.Fatal("Expected metrics to be initialized")
	}
	if r.LayoutComputationsTotal == nil || r.GenerationsTotal == nil || r.HTTPRequestsTotal == nil {
		t.Fatal("Expected metrics to be initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}

	// Two registries must not collide on registration.
	_ = NewRegistry()
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordMutation(t *testing.T) {
	r := NewRegistry()
	r.RecordMutation("ADD_NODE", ResultOK, time.Millisecond)
	r.RecordMutation("ADD_NODE", ResultOK, time.Millisecond)
	r.RecordMutation("ADD_EDGE", ResultValidation, time.Millisecond)

	if v := counterValue(t, r.MutationsTotal.WithLabelValues("ADD_NODE", ResultOK)); v != 2 {
		t.Errorf("Expected 2 ADD_NODE ok, got %v", v)
	}
	if v := counterValue(t, r.MutationsTotal.WithLabelValues("ADD_EDGE", ResultValidation)); v != 1 {
		t.Errorf("Expected 1 ADD_EDGE validation, got %v", v)
	}
}

func TestPathSize(t *testing.T) {
	r := NewRegistry()
	r.UpdatePathSize("s1", 4, 3)

	if v := gaugeValue(t, r.PathNodes.WithLabelValues("s1")); v != 4 {
		t.Errorf("Expected 4 nodes, got %v", v)
	}
	r.ForgetPath("s1")
	if v := gaugeValue(t, r.PathEdges.WithLabelValues("s1")); v != 0 {
		t.Errorf("Expected forgotten series to restart at 0, got %v", v)
	}
}

func TestRecordHistory(t *testing.T) {
	r := NewRegistry()
	r.RecordHistory("undo", true, 3)
	r.RecordHistory("undo", false, 3)

	if v := counterValue(t, r.HistoryOperationsTotal.WithLabelValues("undo", ResultNoop)); v != 1 {
		t.Errorf("Expected 1 noop undo, got %v", v)
	}
	if v := gaugeValue(t, r.HistoryDepth); v != 3 {
		t.Errorf("Expected depth 3, got %v", v)
	}
}

func TestRecordLayout(t *testing.T) {
	r := NewRegistry()
	r.RecordLayout(false, time.Millisecond, []string{"dangling_edge", "dangling_edge"})
	r.RecordLayout(true, time.Microsecond, nil)

	if v := counterValue(t, r.LayoutComputationsTotal.WithLabelValues("hit")); v != 1 {
		t.Errorf("Expected 1 cache hit, got %v", v)
	}
	if v := counterValue(t, r.LayoutIssuesTotal.WithLabelValues("dangling_edge")); v != 2 {
		t.Errorf("Expected 2 issues, got %v", v)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordPersistence("save", ResultError, 2*time.Millisecond)
	r.RecordGeneration(ResultOK, 10*time.Millisecond)
	r.RecordHTTPRequest("GET", "/paths/:owner", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`lessongraph_persistence_operations_total{operation="save",status="error"} 1`,
		`lessongraph_generations_total{result="ok"} 1`,
		`lessongraph_http_requests_total{method="GET",route="/paths/:owner",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected exposition to contain %q", want)
		}
	}
}
