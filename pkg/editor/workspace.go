// Package editor is the single writer over the lesson graph state. A
// Workspace serializes every transition, records undo history for the
// active owner, schedules debounced saves and publishes change events.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/history"
	"github.com/dd0wney/cluso-lessongraph/pkg/layout"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
	"github.com/dd0wney/cluso-lessongraph/pkg/persistence"
	"github.com/dd0wney/cluso-lessongraph/pkg/projection"
	"github.com/dd0wney/cluso-lessongraph/pkg/pubsub"
	"github.com/dd0wney/cluso-lessongraph/pkg/recommend"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
)

// Workspace owns the reducer state and everything that reacts to it
type Workspace struct {
	mu      sync.Mutex
	state   reducer.State
	reducer *reducer.Reducer

	history         *history.History
	historyCapacity int
	historyOwner    string
	synced          *graph.LearningPath // path value the current history entry mirrors
	replaying       bool

	adapter   *persistence.Adapter
	autosave  *persistence.AutoSaver
	engine    *layout.Engine
	projector *projection.Projector
	bus       *pubsub.PubSub
	generator *recommend.Generator

	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Workspace
type Option func(*Workspace)

// WithReducer sets the transition function
func WithReducer(r *reducer.Reducer) Option {
	return func(w *Workspace) { w.reducer = r }
}

// WithHistoryCapacity bounds the undo list
func WithHistoryCapacity(n int) Option {
	return func(w *Workspace) { w.historyCapacity = n }
}

// WithAdapter enables loading and saving through a persistence adapter.
// Saves are debounced by an AutoSaver built over it unless WithAutoSaver
// supplies one.
func WithAdapter(a *persistence.Adapter) Option {
	return func(w *Workspace) { w.adapter = a }
}

// WithAutoSaver sets the debounced saver
func WithAutoSaver(s *persistence.AutoSaver) Option {
	return func(w *Workspace) { w.autosave = s }
}

// WithLayoutEngine sets the layout engine
func WithLayoutEngine(e *layout.Engine) Option {
	return func(w *Workspace) { w.engine = e }
}

// WithGenerator sets the path generator
func WithGenerator(g *recommend.Generator) Option {
	return func(w *Workspace) { w.generator = g }
}

// WithBus sets the change event bus
func WithBus(ps *pubsub.PubSub) Option {
	return func(w *Workspace) { w.bus = ps }
}

// WithLogger sets the workspace logger
func WithLogger(l logging.Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// WithMetrics sets the metrics registry
func WithMetrics(m *metrics.Registry) Option {
	return func(w *Workspace) { w.metrics = m }
}

// New creates a workspace. Components not supplied through options get
// defaults wired to the workspace logger and metrics.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		state:  reducer.NewState(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.reducer == nil {
		w.reducer = reducer.New()
	}
	w.history = history.New(w.historyCapacity)
	if w.engine == nil {
		w.engine = layout.NewEngine(layout.DefaultConfig(),
			layout.WithLogger(w.logger), layout.WithMetrics(w.metrics))
	}
	w.projector = projection.NewProjector(w.engine, projection.WithLogger(w.logger))
	if w.bus == nil {
		dropLogger := w.logger.With(logging.Component("pubsub"))
		w.bus = pubsub.NewPubSub(pubsub.WithDropHook(func(topic string) {
			dropLogger.Warn("subscriber full, change dropped", logging.String("topic", topic))
		}))
	}
	if w.generator == nil {
		w.generator = recommend.NewGenerator(recommend.NewRuleAnalyzer(),
			recommend.WithLogger(w.logger), recommend.WithMetrics(w.metrics))
	}
	if w.autosave == nil && w.adapter != nil {
		w.autosave = persistence.NewAutoSaver(w.adapter,
			persistence.WithAutoSaveLogger(w.logger), persistence.WithAutoSaveMetrics(w.metrics))
	}

	w.logger = w.logger.With(logging.Component("editor"))
	return w
}

// State returns the current state. Paths in it are shared, immutable values.
func (w *Workspace) State() reducer.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Path returns the path of ownerID, or nil. The caller must not modify it.
func (w *Workspace) Path(ownerID string) *graph.LearningPath {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Path(ownerID)
}

// Current returns the active owner's path, or nil
func (w *Workspace) Current() *graph.LearningPath {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Current()
}

// Subscribe streams change events for ownerID, or for every owner with
// pubsub.AllOwners, until ctx is done
func (w *Workspace) Subscribe(ctx context.Context, ownerID string) (*pubsub.Subscription, error) {
	return w.bus.Subscribe(ctx, ownerID)
}

// Dispatch applies one action without recording history. Rejected actions
// leave the state untouched and return the reducer's error.
func (w *Workspace) Dispatch(a reducer.Action) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := w.apply(a)
	if err != nil {
		return err
	}
	w.settle(next, a, kindOf(a))
	return nil
}

// apply runs the reducer and records the outcome. Callers hold mu.
func (w *Workspace) apply(a reducer.Action) (reducer.State, error) {
	start := time.Now()
	next, err := w.reducer.Apply(w.state, a)
	if w.metrics != nil && a != nil {
		w.metrics.RecordMutation(a.Name(), resultOf(err), time.Since(start))
	}
	if err != nil && a != nil {
		w.logger.Debug("action rejected",
			logging.Action(a.Name()), logging.OwnerID(a.Owner()), logging.Error(err))
	}
	return next, err
}

// settle installs next and fans the owner's change out to history
// tracking, autosave, metrics and subscribers. Callers hold mu.
func (w *Workspace) settle(next reducer.State, a reducer.Action, kind pubsub.ChangeKind) {
	prev := w.state
	w.state = next
	if w.metrics != nil {
		w.metrics.PathsLoaded.Set(float64(len(next.Paths)))
	}

	if sc, ok := a.(reducer.SetCurrentOwner); ok {
		w.switchHistory(sc.OwnerID)
		return
	}

	ownerID := a.Owner()
	p := next.Path(ownerID)
	if p == prev.Path(ownerID) {
		return
	}

	if p == nil {
		if w.autosave != nil {
			w.autosave.Cancel(ownerID)
		}
		if w.metrics != nil {
			w.metrics.ForgetPath(ownerID)
		}
		if w.historyOwner == ownerID {
			w.switchHistory("")
		}
		w.bus.Publish(pubsub.Change{OwnerID: ownerID, Kind: pubsub.KindDeleted, Action: a.Name(), LastModified: time.Now()})
		return
	}

	if w.autosave != nil && kind != pubsub.KindLoaded {
		w.autosave.Request(p)
	}
	if w.metrics != nil {
		w.metrics.UpdatePathSize(ownerID, len(p.Nodes), len(p.Edges))
	}
	w.bus.Publish(pubsub.Change{
		OwnerID:      ownerID,
		Kind:         kind,
		Action:       a.Name(),
		NodeCount:    len(p.Nodes),
		EdgeCount:    len(p.Edges),
		LastModified: p.LastModified,
	})
}

func kindOf(a reducer.Action) pubsub.ChangeKind {
	switch a.(type) {
	case reducer.LoadPath:
		return pubsub.KindLoaded
	case reducer.DeletePath:
		return pubsub.KindDeleted
	default:
		return pubsub.KindMutation
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, graph.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, graph.ErrValidation):
		return metrics.ResultValidation
	default:
		return metrics.ResultError
	}
}
