package reducer

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/validation"
	"github.com/google/uuid"
)

// Reducer applies actions to states. It holds no state of its own and is
// safe for concurrent use.
type Reducer struct {
	now    func() time.Time
	newID  func() string
	strict bool
}

// Option configures a Reducer
type Option func(*Reducer)

// WithClock sets the time source used for LastModified and CreatedAt
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// WithIDGenerator sets the generator for node and edge ids left empty by
// the caller
func WithIDGenerator(gen func() string) Option {
	return func(r *Reducer) { r.newID = gen }
}

// WithStrictValidation re-runs the full graph validation after every
// transition and rejects any transition that would leave violations.
func WithStrictValidation() Option {
	return func(r *Reducer) { r.strict = true }
}

// New creates a reducer
func New(opts ...Option) *Reducer {
	r := &Reducer{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply returns the state that results from applying action to state. On
// error the returned state is the input state, untouched.
func (r *Reducer) Apply(state State, action Action) (State, error) {
	switch a := action.(type) {
	case CreatePath:
		return r.createPath(state, a)
	case LoadPath:
		return r.loadPath(state, a)
	case SetCurrentOwner:
		return r.setCurrentOwner(state, a)
	case DeletePath:
		if _, ok := state.Paths[a.OwnerID]; !ok {
			return state, graph.NewError(a.Name()).Owner(a.OwnerID).Path().NotFound()
		}
		return state.withoutPath(a.OwnerID), nil
	case AddNode:
		return r.update(state, a, func(p *graph.LearningPath) error { return r.addNode(p, a) })
	case UpdateNode:
		return r.update(state, a, func(p *graph.LearningPath) error { return r.updateNode(p, a) })
	case DeleteNode:
		return r.update(state, a, func(p *graph.LearningPath) error { return r.deleteNode(p, a) })
	case AddEdge:
		return r.update(state, a, func(p *graph.LearningPath) error { return r.addEdge(p, a) })
	case DeleteEdge:
		return r.update(state, a, func(p *graph.LearningPath) error { return r.deleteEdge(p, a) })
	case SetNodesAndEdges:
		return r.update(state, a, func(p *graph.LearningPath) error {
			return replaceGraph(p, a.Name(), a.Nodes, a.Edges, true)
		})
	case Restore:
		return r.update(state, a, func(p *graph.LearningPath) error {
			return replaceGraph(p, a.Name(), a.Nodes, a.Edges, false)
		})
	case ApplyAnalysis:
		return r.update(state, a, func(p *graph.LearningPath) error {
			if err := replaceGraph(p, a.Name(), a.Nodes, a.Edges, true); err != nil {
				return err
			}
			p.Recommendation = nil
			if a.Recommendation != nil {
				rec := *a.Recommendation
				rec.FocusAreas = append([]string(nil), a.Recommendation.FocusAreas...)
				p.Recommendation = &rec
			}
			return nil
		})
	case SetViewport:
		return r.update(state, a, func(p *graph.LearningPath) error {
			if a.Viewport.Zoom <= 0 {
				return graph.NewError(a.Name()).Owner(a.OwnerID).Path().
					Cause(fmt.Errorf("zoom %v must be positive", a.Viewport.Zoom)).Validation()
			}
			p.Viewport = a.Viewport
			return nil
		})
	case nil:
		return state, graph.NewError("Apply").Cause(fmt.Errorf("nil action")).Validation()
	default:
		return state, graph.NewError(action.Name()).Cause(fmt.Errorf("unsupported action %T", action)).Validation()
	}
}

// update runs fn against a private copy of the owner's path and commits the
// copy into a new state when fn succeeds.
func (r *Reducer) update(state State, action Action, fn func(p *graph.LearningPath) error) (State, error) {
	ownerID := action.Owner()
	current, ok := state.Paths[ownerID]
	if !ok {
		return state, graph.NewError(action.Name()).Owner(ownerID).Path().NotFound()
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return state, err
	}

	if r.strict {
		if vs := graph.ValidateGraph(next.Nodes, next.Edges); graph.HasErrors(vs) {
			return state, graph.NewError(action.Name()).Owner(ownerID).Violations(graph.Errors(vs)).Validation()
		}
	}

	next.LastModified = r.now()
	next.RecomputeProgress()
	return state.withPath(ownerID, next), nil
}

func (r *Reducer) createPath(state State, a CreatePath) (State, error) {
	if err := validation.ValidateID(a.OwnerID); err != nil {
		return state, graph.NewError(a.Name()).Owner(a.OwnerID).Path().Cause(err).Validation()
	}
	if _, exists := state.Paths[a.OwnerID]; exists {
		return state, nil
	}
	return state.withPath(a.OwnerID, graph.NewLearningPath(a.OwnerID, a.OwnerName, r.now())), nil
}

func (r *Reducer) loadPath(state State, a LoadPath) (State, error) {
	if a.Path == nil {
		return state, graph.NewError(a.Name()).Path().Cause(fmt.Errorf("nil path")).Validation()
	}
	if err := validation.ValidateID(a.Path.OwnerID); err != nil {
		return state, graph.NewError(a.Name()).Owner(a.Path.OwnerID).Path().Cause(err).Validation()
	}
	if vs := graph.ValidateGraph(a.Path.Nodes, a.Path.Edges); graph.HasErrors(vs) {
		return state, graph.NewError(a.Name()).Owner(a.Path.OwnerID).Violations(graph.Errors(vs)).Validation()
	}

	p := a.Path.Clone()
	if p.Viewport.Zoom <= 0 {
		p.Viewport.Zoom = 1
	}
	p.RecomputeProgress()
	return state.withPath(p.OwnerID, p), nil
}

func (r *Reducer) setCurrentOwner(state State, a SetCurrentOwner) (State, error) {
	if a.OwnerID != "" {
		if _, ok := state.Paths[a.OwnerID]; !ok {
			return state, graph.NewError(a.Name()).Owner(a.OwnerID).Path().NotFound()
		}
	}
	return State{Paths: state.Paths, CurrentOwner: a.OwnerID}, nil
}

// replaceGraph swaps in a validated copy of nodes and edges
func replaceGraph(p *graph.LearningPath, op string, nodes []graph.ActivityNode, edges []graph.Edge, normalize bool) error {
	ns := graph.CloneNodes(nodes)
	es := graph.CloneEdges(edges)
	if normalize {
		for i := range ns {
			graph.NormalizeBranch(ns[i].Data.Branch)
		}
		for i := range es {
			if es[i].Type == "" {
				es[i].Type = graph.EdgeTypeDefault
			}
		}
	}
	if vs := graph.ValidateGraph(ns, es); graph.HasErrors(vs) {
		return graph.NewError(op).Owner(p.OwnerID).Violations(graph.Errors(vs)).Validation()
	}
	p.Nodes = ns
	p.Edges = es
	return nil
}
