// Package projection derives the two views of a lesson: an overview with
// one node per phase, and a detail view of a single phase's activities.
package projection

import (
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/layout"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
)

// View is the projector state
type View int

const (
	ViewOverview View = iota
	ViewDetail
)

func (v View) String() string {
	if v == ViewDetail {
		return "detail"
	}
	return "overview"
}

// PhaseNode is one phase in the overview
type PhaseNode struct {
	Phase graph.Phase `json:"phase"`
	Label string      `json:"label"`
	Count int         `json:"count"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
}

// PhaseEdge is a fixed transition between phases
type PhaseEdge struct {
	ID      string      `json:"id"`
	Source  graph.Phase `json:"source"`
	Target  graph.Phase `json:"target"`
	Reverse bool        `json:"reverse,omitempty"`
}

// Overview is the phase-level projection
type Overview struct {
	Phases []PhaseNode `json:"phases"`
	Edges  []PhaseEdge `json:"edges"`
}

// Projection is what the current view shows
type Projection struct {
	View     View           `json:"-"`
	Phase    graph.Phase    `json:"phase,omitempty"`
	Overview *Overview      `json:"overview,omitempty"`
	Detail   *layout.Result `json:"detail,omitempty"`
}

var phaseLabels = map[graph.Phase]string{
	graph.PhasePreview:     "Preview",
	graph.PhaseInstruction: "Instruction",
	graph.PhasePractice:    "Practice",
	graph.PhaseAssessment:  "Assessment",
}

// PhaseEdges returns the fixed phase transition model: the forward cycle
// plus the assessment to practice reverse edge.
func PhaseEdges() []PhaseEdge {
	phases := graph.Phases()
	edges := make([]PhaseEdge, 0, len(phases)+1)
	for i, from := range phases {
		to := phases[(i+1)%len(phases)]
		edges = append(edges, PhaseEdge{ID: "phase-" + string(from) + "-" + string(to), Source: from, Target: to})
	}
	return append(edges, PhaseEdge{
		ID:      "phase-" + string(graph.PhaseAssessment) + "-" + string(graph.PhasePractice),
		Source:  graph.PhaseAssessment,
		Target:  graph.PhasePractice,
		Reverse: true,
	})
}

// Projector is the overview/detail state machine over one path. It is safe
// for concurrent use.
type Projector struct {
	engine *layout.Engine
	center graph.Position
	radius float64
	logger logging.Logger

	mu     sync.Mutex
	view   View
	phase  graph.Phase
	cached *Projection
	source *graph.LearningPath
}

// Option configures a Projector
type Option func(*Projector)

// WithOverviewGeometry sets the circle the phase nodes sit on
func WithOverviewGeometry(center graph.Position, radius float64) Option {
	return func(p *Projector) {
		p.center = center
		p.radius = radius
	}
}

// WithLogger sets the projector's logger
func WithLogger(l logging.Logger) Option {
	return func(p *Projector) { p.logger = l }
}

// NewProjector creates a projector in the overview state
func NewProjector(engine *layout.Engine, opts ...Option) *Projector {
	p := &Projector{
		engine: engine,
		center: graph.Position{X: 300, Y: 300},
		radius: 200,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logging.Component("projection"))
	return p
}

// State returns the current view and, in detail, its phase
func (p *Projector) State() (View, graph.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view, p.phase
}

// Expand switches from the overview to the detail view of phase
func (p *Projector) Expand(phase graph.Phase) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.view != ViewOverview {
		return graph.NewError("Expand").Cause(graph.ErrInvalidTransition).Validation()
	}
	if !phase.Valid() {
		return graph.NewError("Expand").Cause(fmt.Errorf("unknown phase %q", phase)).Validation()
	}
	p.view = ViewDetail
	p.phase = phase
	p.invalidate()
	p.logger.Debug("projection expanded", logging.String("phase", string(phase)))
	return nil
}

// Collapse returns from a detail view to the overview
func (p *Projector) Collapse() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.view != ViewDetail {
		return graph.NewError("Collapse").Cause(graph.ErrInvalidTransition).Validation()
	}
	p.view = ViewOverview
	p.phase = ""
	p.invalidate()
	p.logger.Debug("projection collapsed")
	return nil
}

// Invalidate drops the cached projection
func (p *Projector) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidate()
}

func (p *Projector) invalidate() {
	p.cached = nil
	p.source = nil
}

// Project returns the current view of path. Paths are treated as immutable
// values, so a projection is reused until the path pointer or the view
// changes.
func (p *Projector) Project(path *graph.LearningPath) *Projection {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && p.source == path {
		return p.cached
	}

	proj := &Projection{View: p.view, Phase: p.phase}
	if p.view == ViewOverview {
		proj.Overview = BuildOverview(path, p.center, p.radius)
	} else {
		proj.Detail = BuildDetail(p.engine, path, p.phase)
	}
	p.cached = proj
	p.source = path
	return proj
}

// BuildOverview counts the activities of each phase and places the phases
// on a circle in transition order.
func BuildOverview(path *graph.LearningPath, center graph.Position, radius float64) *Overview {
	counts := make(map[graph.Phase]int)
	if path != nil {
		for i := range path.Nodes {
			counts[path.Nodes[i].EffectivePhase()]++
		}
	}

	phases := graph.Phases()
	ids := make([]string, len(phases))
	for i, ph := range phases {
		ids[i] = string(ph)
	}
	positions := layout.Circular(ids, center, radius)

	ov := &Overview{Phases: make([]PhaseNode, 0, len(phases)), Edges: PhaseEdges()}
	for _, ph := range phases {
		pos := positions[string(ph)]
		ov.Phases = append(ov.Phases, PhaseNode{
			Phase: ph,
			Label: phaseLabels[ph],
			Count: counts[ph],
			X:     pos.X,
			Y:     pos.Y,
		})
	}
	return ov
}

// BuildDetail lays out the activities of one phase and the edges between
// them, ignoring every stored position so nothing leaks between views.
func BuildDetail(engine *layout.Engine, path *graph.LearningPath, phase graph.Phase) *layout.Result {
	in := layout.Input{Mode: layout.IgnoreStoredPositions}
	if path == nil {
		return engine.Compute(in)
	}

	members := make(map[string]bool)
	for i := range path.Nodes {
		if path.Nodes[i].EffectivePhase() == phase {
			in.Nodes = append(in.Nodes, path.Nodes[i])
			members[path.Nodes[i].ID] = true
		}
	}
	for _, e := range path.Edges {
		if members[e.Source] && members[e.Target] {
			in.Edges = append(in.Edges, e)
		}
	}
	return engine.Compute(in)
}
