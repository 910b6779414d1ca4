package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/kvstore"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
	"github.com/dd0wney/cluso-lessongraph/pkg/persistence"
	"github.com/dd0wney/cluso-lessongraph/pkg/pubsub"
	"github.com/dd0wney/cluso-lessongraph/pkg/recommend"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func content(id string) graph.ActivityNode {
	return graph.ActivityNode{ID: id, Type: graph.NodeTypeContent, Data: graph.NodeData{Label: id}}
}

func openWorkspace(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	w := New(append([]Option{WithReducer(reducer.New(reducer.WithStrictValidation()))}, opts...)...)
	_, err := w.Open(context.Background(), "s1", "Student One")
	require.NoError(t, err)
	return w
}

func receive(t *testing.T, sub *pubsub.Subscription) pubsub.Change {
	t.Helper()
	select {
	case c, ok := <-sub.Channel():
		require.True(t, ok, "subscription closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change")
	}
	return pubsub.Change{}
}

func TestScenario_ConditionalEdgeUndoRedo(t *testing.T) {
	w := openWorkspace(t)

	_, err := w.AddNode("s1", content("n1"))
	require.NoError(t, err)
	_, err = w.AddNode("s1", graph.ActivityNode{
		ID:   "n2",
		Type: graph.NodeTypeCheckpoint,
		Data: graph.NodeData{
			Label:         "n2",
			IsConditional: true,
			Branch: &graph.BranchControl{Type: graph.BranchCheckpoint, Paths: []graph.BranchPath{
				{ID: "retry", Label: "✗ remedial", NextNodeID: "n1"},
			}},
		},
	})
	require.NoError(t, err)

	_, err = w.AddEdge("s1", graph.Edge{
		ID: "e-n2-n1", Source: "n2", Target: "n1", Type: graph.EdgeTypeConditional,
		Data: &graph.EdgeData{Label: "✗ remedial"},
	})
	require.NoError(t, err)

	_, err = w.AddEdge("s1", graph.Edge{ID: "e-n2-n3", Source: "n2", Target: "n3", Type: graph.EdgeTypeConditional})
	assert.ErrorIs(t, err, graph.ErrValidation)

	p := w.Path("s1")
	assert.Len(t, p.Nodes, 2)
	assert.Len(t, p.Edges, 1)

	ok, err := w.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, w.Path("s1").Nodes, 2)
	assert.Empty(t, w.Path("s1").Edges)

	ok, err = w.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, w.Path("s1").Edges, 1)
}

func TestScenario_DragSurvivesDataEdit(t *testing.T) {
	w := openWorkspace(t)
	_, err := w.AddNode("s1", content("n1"))
	require.NoError(t, err)

	res, err := w.Layout("s1")
	require.NoError(t, err)
	placed, ok := res.Node("n1")
	require.True(t, ok)
	require.NotNil(t, w.Path("s1").Nodes[0].Position)
	assert.Equal(t, graph.Position{X: placed.X, Y: placed.Y}, *w.Path("s1").Nodes[0].Position)
	assert.False(t, w.Path("s1").Nodes[0].Pinned, "automatic placement does not pin")

	require.NoError(t, w.MoveNode("s1", "n1", graph.Position{X: 500, Y: 80}))
	label := "Renamed"
	require.NoError(t, w.UpdateNode("s1", "n1", reducer.NodeChanges{Label: &label}))

	n := w.Path("s1").Nodes[0]
	assert.Equal(t, "Renamed", n.Data.Label)
	assert.Equal(t, graph.Position{X: 500, Y: 80}, *n.Position)
	assert.True(t, n.Pinned)

	_, err = w.Layout("s1")
	require.NoError(t, err)
	assert.Equal(t, graph.Position{X: 500, Y: 80}, *w.Path("s1").Nodes[0].Position)

	res, err = w.ResetLayout("s1")
	require.NoError(t, err)
	assert.Equal(t, graph.Position{X: 500, Y: 80}, *w.Path("s1").Nodes[0].Position, "pinned nodes survive a reset")
	moved, _ := res.Node("n1")
	assert.True(t, moved.Preserved)
}

func TestLayoutWriteBackIsNotAnUndoStep(t *testing.T) {
	w := openWorkspace(t)
	_, err := w.AddNode("s1", content("n1"))
	require.NoError(t, err)
	require.Equal(t, 2, w.history.Len())

	_, err = w.Layout("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, w.history.Len())

	_, err = w.Layout("s1")
	require.NoError(t, err)

	_, err = w.AddNode("s1", content("n2"))
	require.NoError(t, err)

	ok, err := w.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	p := w.Path("s1")
	require.Len(t, p.Nodes, 1)
	assert.NotNil(t, p.Nodes[0].Position, "undo returns to the laid-out graph")
}

func TestResetLayoutIsUndoable(t *testing.T) {
	w := openWorkspace(t)
	_, err := w.AddNode("s1", content("n1"))
	require.NoError(t, err)
	_, err = w.AddNode("s1", content("n2"))
	require.NoError(t, err)
	_, err = w.AddEdge("s1", graph.Edge{ID: "e1", Source: "n1", Target: "n2"})
	require.NoError(t, err)
	_, err = w.Layout("s1")
	require.NoError(t, err)

	// An unpinned node moved by hand through Dispatch is put back by a reset.
	pinned := false
	require.NoError(t, w.Dispatch(reducer.UpdateNode{OwnerID: "s1", NodeID: "n2", Changes: reducer.NodeChanges{
		Position: &graph.Position{X: 9, Y: 9}, Pinned: &pinned,
	}}))

	_, err = w.ResetLayout("s1")
	require.NoError(t, err)
	assert.NotEqual(t, graph.Position{X: 9, Y: 9}, *w.Path("s1").Nodes[1].Position)

	ok, err := w.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, graph.Position{X: 9, Y: 9}, *w.Path("s1").Nodes[1].Position)
}

func TestRedoTruncatedByNewEdit(t *testing.T) {
	w := openWorkspace(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := w.AddNode("s1", content(id))
		require.NoError(t, err)
	}

	for i := 0; i < 2; i++ {
		ok, err := w.Undo()
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.True(t, w.CanRedo())

	_, err := w.AddNode("s1", content("d"))
	require.NoError(t, err)
	assert.False(t, w.CanRedo())

	ok, err := w.Redo()
	require.NoError(t, err)
	assert.False(t, ok)

	var ids []string
	for _, n := range w.Path("s1").Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "d"}, ids)
}

func TestRejectedActionsLeaveHistoryUntouched(t *testing.T) {
	w := openWorkspace(t)
	_, err := w.AddNode("s1", content("a"))
	require.NoError(t, err)
	ok, err := w.Undo()
	require.NoError(t, err)
	require.True(t, ok)

	before := w.history.Len()
	_, err = w.AddEdge("s1", graph.Edge{ID: "e1", Source: "a", Target: "ghost"})
	assert.ErrorIs(t, err, graph.ErrValidation)
	assert.ErrorIs(t, w.DeleteNode("s1", "ghost"), graph.ErrNotFound)
	assert.ErrorIs(t, w.DeleteEdge("s1", "ghost"), graph.ErrNotFound)

	assert.Equal(t, before, w.history.Len())
	assert.True(t, w.CanRedo(), "a rejected edit does not discard redo")
}

func TestUndoRedoInverseLaw(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("undo N then redo N round-trips", prop.ForAll(
		func(n int) bool {
			w := New()
			if _, err := w.Open(context.Background(), "s1", ""); err != nil {
				return false
			}
			for i := 0; i < n; i++ {
				if _, err := w.AddNode("s1", content(fmt.Sprintf("n%d", i))); err != nil {
					return false
				}
			}
			for i := 0; i < n; i++ {
				if ok, err := w.Undo(); !ok || err != nil {
					return false
				}
			}
			if len(w.Path("s1").Nodes) != 0 {
				return false
			}
			if ok, _ := w.Undo(); ok {
				return false
			}
			for i := 0; i < n; i++ {
				if ok, err := w.Redo(); !ok || err != nil {
					return false
				}
			}
			return len(w.Path("s1").Nodes) == n
		},
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

func TestOpenSwitchResetsHistory(t *testing.T) {
	w := openWorkspace(t)
	_, err := w.AddNode("s1", content("a"))
	require.NoError(t, err)
	assert.True(t, w.CanUndo())

	p, err := w.Open(context.Background(), "s2", "Student Two")
	require.NoError(t, err)
	assert.Equal(t, "s2", p.OwnerID)
	assert.Equal(t, "s2", w.State().CurrentOwner)
	assert.Equal(t, "s2", w.HistoryOwner())
	assert.False(t, w.CanUndo())

	ok, err := w.Undo()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = w.Open(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Len(t, w.Current().Nodes, 1, "reopening keeps the in-memory path")

	_, err = w.Open(context.Background(), "bad id", "")
	assert.ErrorIs(t, err, graph.ErrValidation)
}

func TestDispatchDoesNotRecord(t *testing.T) {
	w := openWorkspace(t)
	require.NoError(t, w.Dispatch(reducer.SetViewport{OwnerID: "s1", Viewport: graph.Viewport{X: 10, Y: 20, Zoom: 2}}))
	assert.Equal(t, 0, w.history.Len())
	assert.Equal(t, 2.0, w.Path("s1").Viewport.Zoom)

	err := w.Dispatch(reducer.SetViewport{OwnerID: "s1", Viewport: graph.Viewport{Zoom: 0}})
	assert.ErrorIs(t, err, graph.ErrValidation)
	assert.ErrorIs(t, w.Dispatch(reducer.AddNode{OwnerID: "nobody", Node: content("a")}), graph.ErrNotFound)
}

func TestAutosaveAndStorage(t *testing.T) {
	ctx := context.Background()
	adapter := persistence.NewAdapter(kvstore.NewMemory())
	saver := persistence.NewAutoSaver(adapter, persistence.WithDebounce(20*time.Millisecond))
	w := openWorkspace(t, WithAdapter(adapter), WithAutoSaver(saver))

	for _, id := range []string{"a", "b", "c"} {
		_, err := w.AddNode("s1", content(id))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		p := adapter.Load(ctx, "s1")
		return p != nil && len(p.Nodes) == 3
	}, 2*time.Second, 10*time.Millisecond)

	// A second workspace over the same store loads instead of creating.
	other := New(WithAdapter(adapter))
	p, err := other.Open(ctx, "s1", "")
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 3)
	assert.Equal(t, "Student One", p.OwnerName)

	require.NoError(t, w.DeletePath(ctx, "s1"))
	assert.Nil(t, w.Path("s1"))
	assert.Nil(t, adapter.Load(ctx, "s1"))
	assert.Empty(t, w.HistoryOwner())
	assert.ErrorIs(t, w.DeletePath(ctx, "s1"), graph.ErrNotFound)
}

// gatedSaver holds each save until the gate opens
type gatedSaver struct {
	next    persistence.Saver
	started chan struct{}
	gate    chan struct{}
}

func (g *gatedSaver) Save(ctx context.Context, p *graph.LearningPath) bool {
	g.started <- struct{}{}
	<-g.gate
	return g.next.Save(ctx, p)
}

func TestDeletePathDuringSaveStaysDeleted(t *testing.T) {
	ctx := context.Background()
	adapter := persistence.NewAdapter(kvstore.NewMemory())
	gated := &gatedSaver{next: adapter, started: make(chan struct{}, 4), gate: make(chan struct{})}
	saver := persistence.NewAutoSaver(gated, persistence.WithDebounce(5*time.Millisecond))
	w := openWorkspace(t, WithAdapter(adapter), WithAutoSaver(saver))
	defer w.Close(ctx)

	_, err := w.AddNode("s1", content("a"))
	require.NoError(t, err)
	select {
	case <-gated.started:
	case <-time.After(time.Second):
		t.Fatal("debounced save never started")
	}

	deleted := make(chan error, 1)
	go func() { deleted <- w.DeletePath(ctx, "s1") }()
	time.Sleep(20 * time.Millisecond)
	close(gated.gate)

	select {
	case err := <-deleted:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("DeletePath did not return")
	}
	assert.Nil(t, adapter.Load(ctx, "s1"), "in-flight save resurrected the deleted path")
	assert.Empty(t, adapter.Owners(ctx))
}

func TestCloseFlushesPendingSaves(t *testing.T) {
	ctx := context.Background()
	adapter := persistence.NewAdapter(kvstore.NewMemory())
	saver := persistence.NewAutoSaver(adapter, persistence.WithDebounce(time.Hour))
	w := openWorkspace(t, WithAdapter(adapter), WithAutoSaver(saver))

	_, err := w.AddNode("s1", content("a"))
	require.NoError(t, err)
	require.True(t, saver.Pending("s1"))

	w.Close(ctx)
	p := adapter.Load(ctx, "s1")
	require.NotNil(t, p)
	assert.Len(t, p.Nodes, 1)
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()
	adapter := persistence.NewAdapter(kvstore.NewMemory())
	for _, owner := range []string{"s1", "s2"} {
		p := graph.NewLearningPath(owner, owner, time.Now())
		p.Nodes = append(p.Nodes, content("a"))
		require.True(t, adapter.Save(ctx, p))
	}

	saver := persistence.NewAutoSaver(adapter)
	w := New(WithAdapter(adapter), WithAutoSaver(saver))
	assert.Equal(t, 2, w.Hydrate(ctx))
	assert.Equal(t, []string{"s1", "s2"}, w.State().Owners())
	assert.False(t, saver.Pending("s1"), "loading does not schedule a save")

	assert.Zero(t, New().Hydrate(ctx))
}

func TestGenerate(t *testing.T) {
	g := recommend.NewGenerator(recommend.NewRuleAnalyzer(recommend.WithLatency(100 * time.Millisecond)))
	w := openWorkspace(t, WithGenerator(g))
	rec := recommend.Record{Subject: "Fractions", Scores: map[string]float64{"ordering": 40}}

	var wg sync.WaitGroup
	var first *graph.LearningPath
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = w.Generate(context.Background(), "s1", rec)
	}()

	require.Eventually(t, func() bool { return w.Generating("s1") }, time.Second, 5*time.Millisecond)
	_, err := w.Generate(context.Background(), "s1", rec)
	assert.ErrorIs(t, err, graph.ErrGenerationInFlight)

	wg.Wait()
	require.NoError(t, firstErr)
	assert.Len(t, first.Nodes, 10)
	require.NotNil(t, first.Recommendation)
	assert.Equal(t, []string{"ordering"}, first.Recommendation.FocusAreas)
	assert.Same(t, first, w.Path("s1"))

	ok, err := w.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, w.Path("s1").Nodes)

	_, err = w.Generate(context.Background(), "nobody", rec)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := openWorkspace(t)
	sub, err := w.Subscribe(ctx, "s1")
	require.NoError(t, err)

	_, err = w.AddNode("s1", content("n1"))
	require.NoError(t, err)
	c := receive(t, sub)
	assert.Equal(t, pubsub.KindMutation, c.Kind)
	assert.Equal(t, reducer.ActionAddNode, c.Action)
	assert.Equal(t, 1, c.NodeCount)

	_, err = w.Layout("s1")
	require.NoError(t, err)
	assert.Equal(t, pubsub.KindLayout, receive(t, sub).Kind)

	_, err = w.Undo()
	require.NoError(t, err)
	c = receive(t, sub)
	assert.Equal(t, pubsub.KindUndo, c.Kind)
	assert.Zero(t, c.NodeCount)

	_, err = w.Redo()
	require.NoError(t, err)
	assert.Equal(t, pubsub.KindRedo, receive(t, sub).Kind)

	require.NoError(t, w.DeletePath(ctx, "s1"))
	assert.Equal(t, pubsub.KindDeleted, receive(t, sub).Kind)

	w.Close(ctx)
	_, ok := <-sub.Channel()
	assert.False(t, ok)
}

func TestProjectThroughWorkspace(t *testing.T) {
	w := openWorkspace(t)
	_, err := w.AddNode("s1", content("n1"))
	require.NoError(t, err)

	proj, err := w.Project("s1")
	require.NoError(t, err)
	require.NotNil(t, proj.Overview)

	require.NoError(t, w.Projector().Expand(graph.PhaseInstruction))
	proj, err = w.Project("s1")
	require.NoError(t, err)
	require.NotNil(t, proj.Detail)
	assert.Len(t, proj.Detail.Nodes, 1)

	require.NoError(t, w.Projector().Collapse())
	require.NoError(t, w.Projector().Expand(graph.PhasePractice))
	proj, err = w.Project("s1")
	require.NoError(t, err)
	assert.Empty(t, proj.Detail.Nodes)

	_, err = w.Project("nobody")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestWorkspaceMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	w := openWorkspace(t, WithMetrics(reg))

	_, err := w.AddNode("s1", content("a"))
	require.NoError(t, err)
	_, err = w.AddNode("s1", content("a"))
	require.Error(t, err)
	_, err = w.Undo()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.MutationsTotal.WithLabelValues(reducer.ActionAddNode, metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.MutationsTotal.WithLabelValues(reducer.ActionAddNode, metrics.ResultValidation)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HistoryOperationsTotal.WithLabelValues("undo", metrics.ResultOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.PathNodes.WithLabelValues("s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.PathsLoaded))
}
