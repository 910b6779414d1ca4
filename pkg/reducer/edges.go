package reducer

import (
	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

func (r *Reducer) addEdge(p *graph.LearningPath, a AddEdge) error {
	e := a.Edge.Clone()
	if e.ID == "" {
		e.ID = r.newID()
	}
	if e.Type == "" {
		e.Type = graph.EdgeTypeDefault
	}
	if p.FindEdge(e.ID) >= 0 {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Edge(e.ID).Violations([]graph.Violation{{
			Type: graph.DuplicateID, Severity: graph.SeverityError, EdgeID: e.ID,
			Message: "edge id " + e.ID + " already exists",
		}}).Validation()
	}

	if vs := graph.ValidateEdge(&e, nodeIndex(p)); graph.HasErrors(vs) {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Edge(e.ID).Violations(graph.Errors(vs)).Validation()
	}

	p.Edges = append(p.Edges, e)
	return nil
}

func (r *Reducer) deleteEdge(p *graph.LearningPath, a DeleteEdge) error {
	idx := p.FindEdge(a.EdgeID)
	if idx < 0 {
		return graph.NewError(a.Name()).Owner(p.OwnerID).Edge(a.EdgeID).NotFound()
	}
	edges := make([]graph.Edge, 0, len(p.Edges)-1)
	edges = append(edges, p.Edges[:idx]...)
	p.Edges = append(edges, p.Edges[idx+1:]...)
	return nil
}
