package graph

// Phase is a top-level stage of a lesson
type Phase string

const (
	PhasePreview     Phase = "preview"
	PhaseInstruction Phase = "instruction"
	PhasePractice    Phase = "practice"
	PhaseAssessment  Phase = "assessment"
)

// Phases returns the lesson phases in transition order
func Phases() []Phase {
	return []Phase{PhasePreview, PhaseInstruction, PhasePractice, PhaseAssessment}
}

// Valid reports whether p is one of the four lesson phases
func (p Phase) Valid() bool {
	switch p {
	case PhasePreview, PhaseInstruction, PhasePractice, PhaseAssessment:
		return true
	}
	return false
}

// DefaultPhase infers the phase of a node whose phase was never authored
func DefaultPhase(t NodeType) Phase {
	switch t.Category() {
	case CategoryMedia:
		if t == NodeTypeReading || t == NodeTypeVideo {
			return PhasePreview
		}
		return PhaseInstruction
	case CategoryPractice, CategoryGroup, CategoryAI:
		return PhasePractice
	case CategoryCheckpoint, CategoryRemedial:
		return PhaseAssessment
	default:
		return PhaseInstruction
	}
}
