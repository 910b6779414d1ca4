package layout

import "github.com/dd0wney/cluso-lessongraph/pkg/graph"

const dashed = "6 4"

var (
	styleDefault     = Style{Stroke: "#94a3b8", Width: 2}
	styleConditional = Style{Stroke: "#94a3b8", Width: 2, Dash: dashed}

	stylePass     = Style{Stroke: "#16a34a", Width: 3, Animated: true}
	styleRemedial = Style{Stroke: "#dc2626", Width: 2, Dash: dashed}
	styleAdvanced = Style{Stroke: "#7c3aed", Width: 3, Animated: true}
	styleStandard = Style{Stroke: "#2563eb", Width: 2}
)

// multiChoicePalette rotates by path index
var multiChoicePalette = []string{"#2563eb", "#7c3aed", "#db2777", "#0d9488", "#ea580c"}

// resolveStyle classifies e by the branch control of its source node
func resolveStyle(src *graph.ActivityNode, e *graph.Edge) StyledEdge {
	se := StyledEdge{
		ID:     e.ID,
		Source: e.Source,
		Target: e.Target,
		Label:  e.Label(),
		Style:  styleDefault,
	}
	if e.Type == graph.EdgeTypeConditional {
		se.Style = styleConditional
	}

	if src == nil || !src.Data.IsConditional || src.Data.Branch == nil {
		return se
	}
	idx, path := src.Data.Branch.PathTo(e.Target)
	if path == nil {
		se.Style = styleConditional
		return se
	}

	if se.Label == "" {
		se.Label = path.Label
	}
	se.Outcome = path.Outcome

	switch src.Data.Branch.Type {
	case graph.BranchCheckpoint:
		switch path.Outcome {
		case graph.OutcomePass:
			se.Style = stylePass
		case graph.OutcomeRemedial:
			se.Style = styleRemedial
		default:
			se.Style = styleConditional
		}
	case graph.BranchMultiChoice:
		se.Style = Style{Stroke: multiChoicePalette[idx%len(multiChoicePalette)], Width: 2}
	case graph.BranchDifferentiation:
		switch path.Outcome {
		case graph.OutcomeAdvanced:
			se.Style = styleAdvanced
		case graph.OutcomeStandard:
			se.Style = styleStandard
		case graph.OutcomeRemedial:
			se.Style = styleRemedial
		default:
			se.Style = styleConditional
		}
	default:
		se.Style = styleConditional
	}
	return se
}
