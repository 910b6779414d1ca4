package graph

// Clone returns a deep copy of the node
func (n ActivityNode) Clone() ActivityNode {
	cp := n
	if n.Position != nil {
		pos := *n.Position
		cp.Position = &pos
	}
	cp.Data.Content = cloneContent(n.Data.Content)
	cp.Data.Branch = n.Data.Branch.Clone()
	return cp
}

// Clone returns a deep copy of the branch control
func (b *BranchControl) Clone() *BranchControl {
	if b == nil {
		return nil
	}
	cp := &BranchControl{Type: b.Type, Paths: make([]BranchPath, len(b.Paths))}
	for i, p := range b.Paths {
		cp.Paths[i] = p
		cp.Paths[i].Condition = p.Condition.clone()
	}
	return cp
}

func (c *Condition) clone() *Condition {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Clone returns a deep copy of the edge
func (e Edge) Clone() Edge {
	cp := e
	if e.Data != nil {
		data := *e.Data
		data.Condition = e.Data.Condition.clone()
		cp.Data = &data
	}
	return cp
}

// CloneNodes deep-copies a node list. The result is never nil.
func CloneNodes(nodes []ActivityNode) []ActivityNode {
	out := make([]ActivityNode, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].Clone()
	}
	return out
}

// CloneEdges deep-copies an edge list. The result is never nil.
func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i := range edges {
		out[i] = edges[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the path
func (p *LearningPath) Clone() *LearningPath {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Nodes = CloneNodes(p.Nodes)
	cp.Edges = CloneEdges(p.Edges)
	if p.Recommendation != nil {
		rec := *p.Recommendation
		rec.FocusAreas = append([]string(nil), p.Recommendation.FocusAreas...)
		cp.Recommendation = &rec
	}
	return &cp
}
