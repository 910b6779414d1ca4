package editor

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/history"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/pubsub"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
)

// AddNode appends node to the owner's path and returns its id, which is
// generated when node.ID is empty
func (w *Workspace) AddNode(ownerID string, node graph.ActivityNode) (string, error) {
	p, err := w.record(reducer.AddNode{OwnerID: ownerID, Node: node})
	if err != nil {
		return "", err
	}
	return p.Nodes[len(p.Nodes)-1].ID, nil
}

// UpdateNode merges changes into a node
func (w *Workspace) UpdateNode(ownerID, nodeID string, changes reducer.NodeChanges) error {
	_, err := w.record(reducer.UpdateNode{OwnerID: ownerID, NodeID: nodeID, Changes: changes})
	return err
}

// MoveNode places a node at pos and pins it there
func (w *Workspace) MoveNode(ownerID, nodeID string, pos graph.Position) error {
	return w.UpdateNode(ownerID, nodeID, reducer.NodeChanges{Position: &pos})
}

// DeleteNode removes a node together with its edges and the branch paths
// that lead to it
func (w *Workspace) DeleteNode(ownerID, nodeID string) error {
	_, err := w.record(reducer.DeleteNode{OwnerID: ownerID, NodeID: nodeID})
	return err
}

// AddEdge connects two nodes and returns the edge id, which is generated
// when edge.ID is empty
func (w *Workspace) AddEdge(ownerID string, edge graph.Edge) (string, error) {
	p, err := w.record(reducer.AddEdge{OwnerID: ownerID, Edge: edge})
	if err != nil {
		return "", err
	}
	return p.Edges[len(p.Edges)-1].ID, nil
}

// DeleteEdge removes one edge
func (w *Workspace) DeleteEdge(ownerID, edgeID string) error {
	_, err := w.record(reducer.DeleteEdge{OwnerID: ownerID, EdgeID: edgeID})
	return err
}

func (w *Workspace) record(a reducer.Action) (*graph.LearningPath, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recordLocked(a, pubsub.KindMutation)
}

// recordLocked applies a and records the committed graph as a new history
// entry. The pre-edit graph is recorded first when history does not yet
// mirror it. Rejected actions leave history untouched. Callers hold mu.
func (w *Workspace) recordLocked(a reducer.Action, kind pubsub.ChangeKind) (*graph.LearningPath, error) {
	ownerID := a.Owner()
	cur := w.state.Path(ownerID)

	next, err := w.apply(a)
	if err != nil {
		return nil, err
	}

	p := next.Path(ownerID)
	if !w.replaying {
		w.switchHistory(ownerID)
		if cur != nil && cur != w.synced {
			w.history.Snapshot(cur.Nodes, cur.Edges)
		}
		w.history.Snapshot(p.Nodes, p.Edges)
		w.synced = p
		w.recordHistory("snapshot", true)
	}
	w.settle(next, a, kind)
	return p, nil
}

// Undo restores the previous history entry of the active owner. It
// reports false when there is nothing to undo.
func (w *Workspace) Undo() (bool, error) {
	return w.replay("undo", w.history.Undo, w.history.Redo, pubsub.KindUndo)
}

// Redo restores the next history entry of the active owner. It reports
// false when there is nothing to redo.
func (w *Workspace) Redo() (bool, error) {
	return w.replay("redo", w.history.Redo, w.history.Undo, pubsub.KindRedo)
}

// CanUndo reports whether Undo would restore an entry
func (w *Workspace) CanUndo() bool {
	return w.history.CanUndo()
}

// CanRedo reports whether Redo would restore an entry
func (w *Workspace) CanRedo() bool {
	return w.history.CanRedo()
}

// HistoryOwner returns the owner the undo list belongs to
func (w *Workspace) HistoryOwner() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.historyOwner
}

// replay moves the cursor with step and installs the entry through the
// Restore transition. If the restore is rejected the cursor is moved back
// with revert.
func (w *Workspace) replay(op string, step, revert func() (history.Snapshot, bool), kind pubsub.ChangeKind) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ownerID := w.historyOwner
	if ownerID == "" || w.state.Path(ownerID) == nil || w.replaying {
		w.recordHistory(op, false)
		return false, nil
	}
	snap, ok := step()
	if !ok {
		w.recordHistory(op, false)
		return false, nil
	}

	w.replaying = true
	defer func() { w.replaying = false }()

	a := reducer.Restore{OwnerID: ownerID, Nodes: snap.Nodes, Edges: snap.Edges}
	next, err := w.apply(a)
	if err != nil {
		revert()
		w.logger.Error("history entry rejected",
			logging.String("op", op), logging.OwnerID(ownerID), logging.Error(err))
		w.recordHistory(op, false)
		return false, err
	}

	w.synced = next.Path(ownerID)
	w.settle(next, a, kind)
	w.recordHistory(op, true)
	return true, nil
}

// switchHistory points the undo list at ownerID, dropping the previous
// owner's entries. Callers hold mu.
func (w *Workspace) switchHistory(ownerID string) {
	if w.historyOwner == ownerID {
		return
	}
	w.history.Reset()
	w.historyOwner = ownerID
	w.synced = nil
	w.recordHistory("reset", true)
}

func (w *Workspace) recordHistory(op string, ok bool) {
	if w.metrics != nil {
		w.metrics.RecordHistory(op, ok, w.history.Len())
	}
}
