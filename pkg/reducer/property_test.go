package reducer

import (
	"fmt"
	"testing"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// actionFromSeed maps an integer to an action against the current path so
// that generated sequences mix valid and invalid edits.
func actionFromSeed(p *graph.LearningPath, seed int) Action {
	nodeID := func(k int) string { return fmt.Sprintf("n%d", k%8) }
	types := graph.NodeTypes()

	switch seed % 6 {
	case 0, 1:
		return AddNode{OwnerID: p.OwnerID, Node: graph.ActivityNode{
			ID:   nodeID(seed / 6),
			Type: types[(seed/6)%len(types)],
		}}
	case 2:
		return AddEdge{OwnerID: p.OwnerID, Edge: graph.Edge{
			ID:     fmt.Sprintf("e%d", seed%13),
			Source: nodeID(seed / 6),
			Target: nodeID(seed / 11),
		}}
	case 3:
		return DeleteNode{OwnerID: p.OwnerID, NodeID: nodeID(seed / 6)}
	case 4:
		return DeleteEdge{OwnerID: p.OwnerID, EdgeID: fmt.Sprintf("e%d", seed%13)}
	default:
		if len(p.Nodes) == 0 {
			return AddNode{OwnerID: p.OwnerID, Node: graph.ActivityNode{ID: nodeID(seed), Type: graph.NodeTypeVideo}}
		}
		src := p.Nodes[seed%len(p.Nodes)].ID
		tgt := p.Nodes[(seed/7)%len(p.Nodes)].ID
		cond := true
		return UpdateNode{OwnerID: p.OwnerID, NodeID: src, Changes: NodeChanges{
			IsConditional: &cond,
			Branch: &graph.BranchControl{
				Type:  graph.BranchCheckpoint,
				Paths: []graph.BranchPath{{ID: "p", Label: "✓ pass", NextNodeID: tgt}},
			},
		}}
	}
}

func TestReducerInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("every reachable state validates", prop.ForAll(
		func(seeds []int) bool {
			r := New()
			s, err := r.Apply(NewState(), CreatePath{OwnerID: "s1"})
			if err != nil {
				return false
			}
			for _, seed := range seeds {
				next, err := r.Apply(s, actionFromSeed(s.Path("s1"), seed))
				if err != nil {
					// Rejected actions return the input unchanged.
					if next.Path("s1") != s.Path("s1") {
						return false
					}
					continue
				}
				p := next.Path("s1")
				if graph.HasErrors(graph.ValidateGraph(p.Nodes, p.Edges)) {
					return false
				}
				s = next
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.Property("delete removes exactly the touching edges", prop.ForAll(
		func(seeds []int, victim int) bool {
			r := New()
			s, _ := r.Apply(NewState(), CreatePath{OwnerID: "s1"})
			for _, seed := range seeds {
				if next, err := r.Apply(s, actionFromSeed(s.Path("s1"), seed)); err == nil {
					s = next
				}
			}
			before := s.Path("s1")
			if len(before.Nodes) == 0 {
				return true
			}
			target := before.Nodes[victim%len(before.Nodes)].ID

			expected := make(map[string]bool)
			for _, e := range before.Edges {
				if !e.Touches(target) {
					expected[e.ID] = true
				}
			}

			after, err := r.Apply(s, DeleteNode{OwnerID: "s1", NodeID: target})
			if err != nil {
				return false
			}
			edges := after.Path("s1").Edges
			if len(edges) != len(expected) {
				return false
			}
			for _, e := range edges {
				if !expected[e.ID] {
					return false
				}
			}
			return len(before.Edges) >= len(edges)
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
