package editor

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/layout"
	"github.com/dd0wney/cluso-lessongraph/pkg/projection"
	"github.com/dd0wney/cluso-lessongraph/pkg/pubsub"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
)

// Layout computes an incremental layout of the owner's path. Nodes that
// have never been placed get their computed position written back; the
// write-back is not an undo step.
func (w *Workspace) Layout(ownerID string) (*layout.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.state.Path(ownerID)
	if p == nil {
		return nil, graph.NewError("Layout").Owner(ownerID).Path().NotFound()
	}

	res := w.engine.Compute(layout.Input{Nodes: p.Nodes, Edges: p.Edges, Mode: layout.Incremental})
	nodes, changed := placeNodes(p.Nodes, res, false)
	if !changed {
		return res, nil
	}

	a := reducer.SetNodesAndEdges{OwnerID: ownerID, Nodes: nodes, Edges: p.Edges}
	next, err := w.apply(a)
	if err != nil {
		return res, err
	}
	w.settle(next, a, pubsub.KindLayout)
	return res, nil
}

// ResetLayout recomputes every unpinned position from scratch. Unlike
// Layout it moves placed nodes, so it is recorded as an undo step.
func (w *Workspace) ResetLayout(ownerID string) (*layout.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.state.Path(ownerID)
	if p == nil {
		return nil, graph.NewError("ResetLayout").Owner(ownerID).Path().NotFound()
	}

	res := w.engine.Compute(layout.Input{Nodes: p.Nodes, Edges: p.Edges, Mode: layout.Full})
	nodes, changed := placeNodes(p.Nodes, res, true)
	if !changed {
		return res, nil
	}

	_, err := w.recordLocked(reducer.SetNodesAndEdges{OwnerID: ownerID, Nodes: nodes, Edges: p.Edges}, pubsub.KindLayout)
	return res, err
}

// placeNodes copies nodes with positions taken from res. Unplaced nodes are
// always positioned; with all set every unpinned node is. Placement does
// not pin.
func placeNodes(nodes []graph.ActivityNode, res *layout.Result, all bool) ([]graph.ActivityNode, bool) {
	out := graph.CloneNodes(nodes)
	changed := false
	for i := range out {
		n := &out[i]
		if n.Position != nil && (!all || n.Pinned) {
			continue
		}
		pn, ok := res.Node(n.ID)
		if !ok {
			continue
		}
		if n.Position != nil && n.Position.X == pn.X && n.Position.Y == pn.Y {
			continue
		}
		n.Position = &graph.Position{X: pn.X, Y: pn.Y}
		changed = true
	}
	return out, changed
}

// Project returns the projector's current view of the owner's path
func (w *Workspace) Project(ownerID string) (*projection.Projection, error) {
	p := w.Path(ownerID)
	if p == nil {
		return nil, graph.NewError("Project").Owner(ownerID).Path().NotFound()
	}
	return w.projector.Project(p), nil
}

// Projector returns the view state machine
func (w *Workspace) Projector() *projection.Projector {
	return w.projector
}

// Engine returns the layout engine
func (w *Workspace) Engine() *layout.Engine {
	return w.engine
}
