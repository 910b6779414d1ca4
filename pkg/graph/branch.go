package graph

import "strings"

// BranchType describes how a node's outgoing paths are chosen at runtime
type BranchType string

const (
	// BranchCheckpoint is a binary pass/remedial gate
	BranchCheckpoint BranchType = "checkpoint"
	// BranchMultiChoice offers N equally weighted options
	BranchMultiChoice BranchType = "multi-choice"
	// BranchDifferentiation routes into advanced/standard/remedial tiers
	BranchDifferentiation BranchType = "differentiation"
)

// Valid reports whether the branch type is known
func (t BranchType) Valid() bool {
	switch t {
	case BranchCheckpoint, BranchMultiChoice, BranchDifferentiation:
		return true
	}
	return false
}

// Outcome is the semantic class of a branch path
type Outcome string

const (
	OutcomePass     Outcome = "pass"
	OutcomeRemedial Outcome = "remedial"
	OutcomeAdvanced Outcome = "advanced"
	OutcomeStandard Outcome = "standard"
	OutcomeNeutral  Outcome = "neutral"
)

// Valid reports whether the outcome is known
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePass, OutcomeRemedial, OutcomeAdvanced, OutcomeStandard, OutcomeNeutral:
		return true
	}
	return false
}

// BranchPath is one outgoing option of a branch control
type BranchPath struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	NextNodeID string     `json:"nextNodeId"`
	Condition  *Condition `json:"condition,omitempty"`
	Outcome    Outcome    `json:"outcome,omitempty"`
}

// BranchControl is attached to a conditional node
type BranchControl struct {
	Type  BranchType   `json:"type"`
	Paths []BranchPath `json:"paths"`
}

// PathTo returns the index and path leading to target, or -1 and nil
func (b *BranchControl) PathTo(target string) (int, *BranchPath) {
	if b == nil {
		return -1, nil
	}
	for i := range b.Paths {
		if b.Paths[i].NextNodeID == target {
			return i, &b.Paths[i]
		}
	}
	return -1, nil
}

// Marker substrings used by legacy authored labels. Matching is on the
// lower-cased label and id.
var (
	passMarkers     = []string{"✓", "✔", "pass", "mastered", "學會", "通過", "掌握"}
	remedialMarkers = []string{"✗", "✘", "remedial", "review", "retry", "fail", "補", "複習", "未"}
	advancedMarkers = []string{"advanced", "challenge", "extend", "進階", "挑戰"}
	standardMarkers = []string{"standard", "core", "regular", "標準", "一般"}
)

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// ClassifyOutcome infers the outcome of a path authored without one. It is
// a label/id heuristic applied once at authoring time; anything it does not
// recognize is neutral.
func ClassifyOutcome(branchType BranchType, path BranchPath) Outcome {
	text := strings.ToLower(path.Label + " " + path.ID)

	switch branchType {
	case BranchCheckpoint:
		// Remedial markers win: "✗ not passed" must not read as pass.
		if containsAny(text, remedialMarkers) {
			return OutcomeRemedial
		}
		if containsAny(text, passMarkers) {
			return OutcomePass
		}
	case BranchDifferentiation:
		if containsAny(text, advancedMarkers) {
			return OutcomeAdvanced
		}
		if containsAny(text, remedialMarkers) {
			return OutcomeRemedial
		}
		if containsAny(text, standardMarkers) {
			return OutcomeStandard
		}
	}
	return OutcomeNeutral
}

// NormalizeBranch fills in missing outcomes on every path of b in place
func NormalizeBranch(b *BranchControl) {
	if b == nil {
		return
	}
	for i := range b.Paths {
		if b.Paths[i].Outcome == "" {
			b.Paths[i].Outcome = ClassifyOutcome(b.Type, b.Paths[i])
		}
	}
}
