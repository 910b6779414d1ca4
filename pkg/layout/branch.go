package layout

import (
	"sort"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

// InferBranchLevels derives the band of each node from branch outcomes:
// targets of remedial paths and remedial activities sit below the main
// band, targets of advanced paths above it. Nodes absent from the map are
// on the main band. Remedial wins when a node is reached both ways.
func InferBranchLevels(nodes []graph.ActivityNode) map[string]BranchLevel {
	levels := make(map[string]BranchLevel)

	mark := func(id string, level BranchLevel) {
		if levels[id] == LevelRemedial {
			return
		}
		levels[id] = level
	}

	for i := range nodes {
		n := &nodes[i]
		if n.Type == graph.NodeTypeRemedial {
			mark(n.ID, LevelRemedial)
		}
		if !n.Data.IsConditional || n.Data.Branch == nil {
			continue
		}
		for _, p := range n.Data.Branch.Paths {
			switch p.Outcome {
			case graph.OutcomeRemedial:
				mark(p.NextNodeID, LevelRemedial)
			case graph.OutcomeAdvanced:
				mark(p.NextNodeID, LevelAdvanced)
			}
		}
	}
	return levels
}

func (e *Engine) bandOffset(level BranchLevel) float64 {
	switch level {
	case LevelRemedial:
		return e.cfg.BranchOffset
	case LevelAdvanced:
		return -e.cfg.BranchOffset
	default:
		return 0
	}
}

// unresolvedBranches reports branch paths whose target is outside the node set
func unresolvedBranches(nodes map[string]*graph.ActivityNode, ids []string) []Issue {
	var issues []Issue
	for _, id := range ids {
		n := nodes[id]
		if !n.Data.IsConditional || n.Data.Branch == nil {
			continue
		}
		targets := make([]string, 0, len(n.Data.Branch.Paths))
		for _, p := range n.Data.Branch.Paths {
			if _, ok := nodes[p.NextNodeID]; !ok {
				targets = append(targets, p.NextNodeID)
			}
		}
		sort.Strings(targets)
		for _, t := range targets {
			issues = append(issues, Issue{
				Kind:    IssueUnresolvedBranch,
				NodeID:  id,
				Message: "branch path of " + id + " targets unknown node " + t,
			})
		}
	}
	return issues
}
