package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
)

// Generator runs an Analyzer with at most one outstanding request per
// owner. A second request while one is running is rejected, not queued.
type Generator struct {
	analyzer Analyzer
	logger   logging.Logger
	metrics  *metrics.Registry

	mu       sync.Mutex
	inflight map[string]bool
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithLogger sets the generator's logger
func WithLogger(l logging.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// WithMetrics sets the registry generation metrics are recorded in
func WithMetrics(m *metrics.Registry) GeneratorOption {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a generator over analyzer
func NewGenerator(analyzer Analyzer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		analyzer: analyzer,
		logger:   logging.NewNopLogger(),
		inflight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logging.Component("recommend"))
	return g
}

// InFlight reports whether a request for ownerID is running
func (g *Generator) InFlight(ownerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight[ownerID]
}

func (g *Generator) acquire(ownerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inflight[ownerID] {
		return false
	}
	g.inflight[ownerID] = true
	if g.metrics != nil {
		g.metrics.GenerationInFlight.Inc()
	}
	return true
}

func (g *Generator) release(ownerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, ownerID)
	if g.metrics != nil {
		g.metrics.GenerationInFlight.Dec()
	}
}

func (g *Generator) record(result string, d time.Duration) {
	if g.metrics != nil {
		g.metrics.RecordGeneration(result, d)
	}
}

// Generate analyzes rec and returns a proposal that passed structural
// validation. It fails with graph.ErrGenerationInFlight while another
// request for the same owner is running.
func (g *Generator) Generate(ctx context.Context, rec Record) (*Analysis, error) {
	if !g.acquire(rec.OwnerID) {
		g.record("rejected", 0)
		g.logger.Warn("generation already in flight", logging.OwnerID(rec.OwnerID))
		return nil, fmt.Errorf("generate for %s: %w", rec.OwnerID, graph.ErrGenerationInFlight)
	}
	defer g.release(rec.OwnerID)

	timer := logging.StartTimer(g.logger, "path generated", logging.OwnerID(rec.OwnerID))

	a, err := g.analyzer.Analyze(ctx, rec)
	if err != nil {
		g.record(metrics.ResultError, timer.EndError(err))
		return nil, fmt.Errorf("analyze %s: %w", rec.OwnerID, err)
	}

	if vs := graph.ValidateGraph(a.Nodes, a.Edges); graph.HasErrors(vs) {
		err := graph.NewError("Generate").Owner(rec.OwnerID).Path().Violations(graph.Errors(vs)).Validation()
		g.record(metrics.ResultValidation, timer.EndError(err))
		return nil, err
	}

	g.record(metrics.ResultOK, timer.End(logging.Count(len(a.Nodes))))
	return a, nil
}
