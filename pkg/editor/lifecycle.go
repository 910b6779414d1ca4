package editor

import (
	"context"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/pubsub"
	"github.com/dd0wney/cluso-lessongraph/pkg/recommend"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
)

// Open makes ownerID the active owner. A path missing from memory is
// loaded from storage, or created empty when storage has none. Switching
// owners starts a fresh undo list.
func (w *Workspace) Open(ctx context.Context, ownerID, ownerName string) (*graph.LearningPath, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Path(ownerID) == nil {
		var a reducer.Action = reducer.CreatePath{OwnerID: ownerID, OwnerName: ownerName}
		if w.adapter != nil {
			if p := w.adapter.Load(ctx, ownerID); p != nil {
				a = reducer.LoadPath{Path: p}
			}
		}
		next, err := w.apply(a)
		if err != nil {
			return nil, err
		}
		w.settle(next, a, kindOf(a))
	}

	a := reducer.SetCurrentOwner{OwnerID: ownerID}
	next, err := w.apply(a)
	if err != nil {
		return nil, err
	}
	w.settle(next, a, pubsub.KindMutation)

	w.logger.Info("path opened", logging.OwnerID(ownerID), logging.Count(len(w.state.Current().Nodes)))
	return w.state.Current(), nil
}

// Hydrate loads every stored path into memory and returns how many were
// loaded. Paths already in memory are replaced.
func (w *Workspace) Hydrate(ctx context.Context) int {
	if w.adapter == nil {
		return 0
	}
	paths := w.adapter.LoadAll(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	loaded := 0
	for _, p := range paths {
		a := reducer.LoadPath{Path: p}
		next, err := w.apply(a)
		if err != nil {
			w.logger.Warn("stored path rejected", logging.OwnerID(p.OwnerID), logging.Error(err))
			continue
		}
		w.settle(next, a, pubsub.KindLoaded)
		loaded++
	}
	w.logger.Info("paths hydrated", logging.Count(loaded))
	return loaded
}

// DeletePath removes the owner's path from memory and storage
func (w *Workspace) DeletePath(ctx context.Context, ownerID string) error {
	w.mu.Lock()
	a := reducer.DeletePath{OwnerID: ownerID}
	next, err := w.apply(a)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.settle(next, a, pubsub.KindDeleted)
	w.mu.Unlock()

	if w.adapter != nil {
		w.adapter.Remove(ctx, ownerID)
	}
	return nil
}

// Generate asks the generator for a starter path and replaces the owner's
// graph with it as one undo step. The analysis runs without holding the
// workspace lock; a second request for the same owner fails with
// graph.ErrGenerationInFlight.
func (w *Workspace) Generate(ctx context.Context, ownerID string, rec recommend.Record) (*graph.LearningPath, error) {
	if w.Path(ownerID) == nil {
		return nil, graph.NewError("Generate").Owner(ownerID).Path().NotFound()
	}

	rec.OwnerID = ownerID
	analysis, err := w.generator.Generate(ctx, rec)
	if err != nil {
		return nil, err
	}

	return w.record(reducer.ApplyAnalysis{
		OwnerID:        ownerID,
		Nodes:          analysis.Nodes,
		Edges:          analysis.Edges,
		Recommendation: &analysis.Recommendation,
	})
}

// Generating reports whether a generation for ownerID is running
func (w *Workspace) Generating(ownerID string) bool {
	return w.generator.InFlight(ownerID)
}

// Flush writes every pending save now
func (w *Workspace) Flush(ctx context.Context) {
	if w.autosave != nil {
		w.autosave.Flush(ctx)
	}
}

// Close flushes pending saves and ends every subscription
func (w *Workspace) Close(ctx context.Context) {
	if w.autosave != nil {
		w.autosave.Close(ctx)
	}
	w.bus.Shutdown()
}
