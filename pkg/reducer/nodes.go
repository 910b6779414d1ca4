package reducer

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

func nodeIndex(p *graph.LearningPath) func(id string) bool {
	ids := make(map[string]struct{}, len(p.Nodes))
	for i := range p.Nodes {
		ids[p.Nodes[i].ID] = struct{}{}
	}
	return func(id string) bool {
		_, ok := ids[id]
		return ok
	}
}

func (r *Reducer) addNode(p *graph.LearningPath, a AddNode) error {
	n := a.Node.Clone()
	if n.ID == "" {
		n.ID = r.newID()
	}
	if p.FindNode(n.ID) >= 0 {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Node(n.ID).Violations([]graph.Violation{{
			Type: graph.DuplicateID, Severity: graph.SeverityError, NodeID: n.ID,
			Message: "node id " + n.ID + " already exists",
		}}).Validation()
	}
	graph.NormalizeBranch(n.Data.Branch)

	if vs := graph.ValidateNode(&n, nodeIndex(p)); graph.HasErrors(vs) {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Node(n.ID).Violations(graph.Errors(vs)).Validation()
	}

	p.Nodes = append(p.Nodes, n)
	return nil
}

func (r *Reducer) updateNode(p *graph.LearningPath, a UpdateNode) error {
	idx := p.FindNode(a.NodeID)
	if idx < 0 {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Node(a.NodeID).NotFound()
	}

	n := &p.Nodes[idx]
	c := a.Changes
	if c.Type != nil {
		n.Type = *c.Type
	}
	if c.Position != nil {
		pos := *c.Position
		n.Position = &pos
		n.Pinned = true
	}
	if c.Pinned != nil {
		n.Pinned = *c.Pinned
	}
	if c.Label != nil {
		n.Data.Label = *c.Label
	}
	if c.Description != nil {
		n.Data.Description = *c.Description
	}
	if c.Content != nil {
		n.Data.Content = c.Content
		// Detach from the caller's payload.
		n.Data = n.Clone().Data
	}
	if c.Status != nil {
		n.Data.Status = *c.Status
	}
	if c.Required != nil {
		n.Data.Required = *c.Required
	}
	if c.AIGenerated != nil {
		n.Data.AIGenerated = *c.AIGenerated
	}
	if c.IsConditional != nil {
		n.Data.IsConditional = *c.IsConditional
	}
	if c.ClearBranch {
		n.Data.Branch = nil
	}
	if c.Branch != nil {
		n.Data.Branch = c.Branch.Clone()
		graph.NormalizeBranch(n.Data.Branch)
	}
	if c.Phase != nil {
		n.Data.Phase = *c.Phase
	}

	if vs := graph.ValidateNode(n, nodeIndex(p)); graph.HasErrors(vs) {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Node(a.NodeID).Violations(graph.Errors(vs)).Validation()
	}
	return nil
}

// deleteNode removes the node, exactly the edges touching it, and branch
// paths that would otherwise dangle. A conditional node left without paths
// stops being conditional.
func (r *Reducer) deleteNode(p *graph.LearningPath, a DeleteNode) error {
	idx := p.FindNode(a.NodeID)
	if idx < 0 {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Node(a.NodeID).NotFound()
	}

	nodes := make([]graph.ActivityNode, 0, len(p.Nodes)-1)
	for i := range p.Nodes {
		if i == idx {
			continue
		}
		n := p.Nodes[i]
		if b := n.Data.Branch; b != nil {
			kept := b.Paths[:0]
			for _, bp := range b.Paths {
				if bp.NextNodeID != a.NodeID {
					kept = append(kept, bp)
				}
			}
			b.Paths = kept
			if len(b.Paths) == 0 && n.Data.IsConditional {
				n.Data.IsConditional = false
				n.Data.Branch = nil
			}
		}
		nodes = append(nodes, n)
	}

	edges := make([]graph.Edge, 0, len(p.Edges))
	for _, e := range p.Edges {
		if !e.Touches(a.NodeID) {
			edges = append(edges, e)
		}
	}

	p.Nodes = nodes
	p.Edges = edges
	return nil
}
