package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// graphOf returns a chain of n video nodes
func graphOf(n int) ([]graph.ActivityNode, []graph.Edge) {
	nodes := make([]graph.ActivityNode, n)
	var edges []graph.Edge
	for i := range nodes {
		nodes[i] = graph.ActivityNode{ID: fmt.Sprintf("n%d", i), Type: graph.NodeTypeVideo}
		if i > 0 {
			edges = append(edges, graph.Edge{ID: fmt.Sprintf("e%d", i), Source: nodes[i-1].ID, Target: nodes[i].ID})
		}
	}
	return nodes, edges
}

func TestHistory_Empty(t *testing.T) {
	h := New(10)

	if _, ok := h.Undo(); ok {
		t.Error("Expected Undo to fail on empty history")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Expected Redo to fail on empty history")
	}
	if h.Cursor() != -1 {
		t.Errorf("Expected cursor -1, got %d", h.Cursor())
	}
	if _, ok := h.Current(); ok {
		t.Error("Expected no current entry")
	}
}

func TestHistory_UndoAtIndexZero(t *testing.T) {
	h := New(10)
	h.Snapshot(graphOf(1))

	if h.CanUndo() {
		t.Error("Expected CanUndo false with a single entry")
	}
	if _, ok := h.Undo(); ok {
		t.Error("Expected Undo to return false at index 0")
	}
}

func TestHistory_UndoRedo(t *testing.T) {
	h := New(10)
	for i := 0; i <= 3; i++ {
		h.Snapshot(graphOf(i))
	}

	snap, ok := h.Undo()
	if !ok || len(snap.Nodes) != 2 {
		t.Fatalf("Expected undo to 2 nodes, got ok=%v nodes=%d", ok, len(snap.Nodes))
	}
	snap, ok = h.Undo()
	if !ok || len(snap.Nodes) != 1 {
		t.Fatalf("Expected undo to 1 node, got ok=%v nodes=%d", ok, len(snap.Nodes))
	}
	if !h.CanRedo() {
		t.Fatal("Expected redo to be available")
	}
	snap, ok = h.Redo()
	if !ok || len(snap.Nodes) != 2 {
		t.Fatalf("Expected redo to 2 nodes, got ok=%v nodes=%d", ok, len(snap.Nodes))
	}
}

func TestHistory_SnapshotTruncatesRedo(t *testing.T) {
	h := New(10)
	for i := 0; i <= 3; i++ {
		h.Snapshot(graphOf(i))
	}
	h.Undo()
	h.Undo()

	h.Snapshot(graphOf(7))

	if h.CanRedo() {
		t.Error("Expected new snapshot to discard redo entries")
	}
	if h.Len() != 3 {
		t.Errorf("Expected 3 entries after truncation, got %d", h.Len())
	}
	cur, _ := h.Current()
	if len(cur.Nodes) != 7 {
		t.Errorf("Expected current entry to be the new snapshot, got %d nodes", len(cur.Nodes))
	}
}

func TestHistory_CapacityEvictsOldest(t *testing.T) {
	h := New(3)
	for i := 0; i < 5; i++ {
		h.Snapshot(graphOf(i))
	}

	if h.Len() != 3 {
		t.Fatalf("Expected 3 retained entries, got %d", h.Len())
	}
	h.Undo()
	snap, _ := h.Undo()
	if len(snap.Nodes) != 2 {
		t.Errorf("Expected oldest retained entry to have 2 nodes, got %d", len(snap.Nodes))
	}
	if h.CanUndo() {
		t.Error("Expected evicted entries to be unreachable")
	}
}

func TestHistory_SnapshotsAreCopies(t *testing.T) {
	h := New(5)
	nodes, edges := graphOf(2)
	h.Snapshot(nodes, edges)
	nodes[0].ID = "mutated"

	cur, _ := h.Current()
	if cur.Nodes[0].ID != "n0" {
		t.Errorf("Expected snapshot isolated from caller, got %s", cur.Nodes[0].ID)
	}
	cur.Nodes[1].ID = "mutated"
	again, _ := h.Current()
	if again.Nodes[1].ID != "n1" {
		t.Errorf("Expected returned snapshot isolated from history, got %s", again.Nodes[1].ID)
	}
}

func TestHistory_ResetAndClock(t *testing.T) {
	h := New(5)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.SetClock(func() time.Time { return fixed })
	h.Snapshot(graphOf(1))

	cur, _ := h.Current()
	if !cur.Timestamp.Equal(fixed) {
		t.Errorf("Expected timestamp %v, got %v", fixed, cur.Timestamp)
	}

	h.Reset()
	if h.Len() != 0 || h.Cursor() != -1 {
		t.Errorf("Expected empty history after reset, len=%d cursor=%d", h.Len(), h.Cursor())
	}
	if New(0).Capacity() != DefaultCapacity {
		t.Errorf("Expected default capacity %d", DefaultCapacity)
	}
}

func TestHistoryInverseLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("undo N then redo N round-trips", prop.ForAll(
		func(sizes []int) bool {
			h := New(len(sizes) + 1)
			h.Snapshot(graphOf(0))
			for _, n := range sizes {
				h.Snapshot(graphOf(n))
			}

			for range sizes {
				if _, ok := h.Undo(); !ok {
					return false
				}
			}
			first, _ := h.Current()
			if len(first.Nodes) != 0 || h.CanUndo() {
				return false
			}

			for range sizes {
				if _, ok := h.Redo(); !ok {
					return false
				}
			}
			last, _ := h.Current()
			return len(sizes) == 0 || len(last.Nodes) == sizes[len(sizes)-1]
		},
		gen.SliceOf(gen.IntRange(1, 12)),
	))

	properties.TestingRun(t)
}
