// Package history keeps a bounded, linear undo/redo list of graph snapshots
// for one owner at a time. It stores copies only; replaying a snapshot is
// the caller's job.
package history

import (
	"sync"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

// DefaultCapacity is the number of snapshots retained when none is configured
const DefaultCapacity = 50

// Snapshot is a deep copy of a path's nodes and edges at one point in time
type Snapshot struct {
	Nodes     []graph.ActivityNode
	Edges     []graph.Edge
	Timestamp time.Time
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Nodes:     graph.CloneNodes(s.Nodes),
		Edges:     graph.CloneEdges(s.Edges),
		Timestamp: s.Timestamp,
	}
}

// History is a cursor over a list of snapshots. The entry under the cursor
// is the current state; entries after it are redo states.
type History struct {
	mu       sync.Mutex
	entries  []Snapshot
	cursor   int
	capacity int
	now      func() time.Time
}

// New creates a history retaining at most capacity snapshots. A
// non-positive capacity selects DefaultCapacity.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		entries:  make([]Snapshot, 0, capacity),
		cursor:   -1,
		capacity: capacity,
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source
func (h *History) SetClock(now func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
}

// Snapshot deep-copies nodes and edges and records them as the new current
// entry. Redo entries past the cursor are discarded first; the oldest entry
// is evicted once capacity is exceeded.
func (h *History) Snapshot(nodes []graph.ActivityNode, edges []graph.Edge) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, Snapshot{
		Nodes:     graph.CloneNodes(nodes),
		Edges:     graph.CloneEdges(edges),
		Timestamp: h.now(),
	})
	if over := len(h.entries) - h.capacity; over > 0 {
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor back and returns the snapshot to replay. It returns
// false when there is nothing to undo.
func (h *History) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor <= 0 {
		return Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor].clone(), true
}

// Redo moves the cursor forward and returns the snapshot to replay. It
// returns false when there is nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries)-1 {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor].clone(), true
}

// Current returns a copy of the entry under the cursor
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		return Snapshot{}, false
	}
	return h.entries[h.cursor].clone(), true
}

// Reset drops every entry
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
	h.cursor = -1
}

// CanUndo reports whether Undo would succeed
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

// CanRedo reports whether Redo would succeed
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)-1
}

// Len returns the number of retained snapshots
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cursor returns the index of the current entry, or -1 when empty
func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Capacity returns the maximum number of retained snapshots
func (h *History) Capacity() int {
	return h.capacity
}
