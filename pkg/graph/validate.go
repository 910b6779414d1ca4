package graph

import (
	"fmt"

	"github.com/dd0wney/cluso-lessongraph/pkg/validation"
)

// Severity indicates the importance of a violation
type Severity int

const (
	SeverityWarning Severity = iota + 1
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes a structural violation
type ViolationType int

const (
	MissingID ViolationType = iota
	DuplicateID
	UnknownType
	InvalidField
	ContentMismatch
	DanglingEdge
	SelfLoop
	MissingBranch
	DanglingBranchTarget
	BranchOutcome
)

func (vt ViolationType) String() string {
	switch vt {
	case MissingID:
		return "MissingID"
	case DuplicateID:
		return "DuplicateID"
	case UnknownType:
		return "UnknownType"
	case InvalidField:
		return "InvalidField"
	case ContentMismatch:
		return "ContentMismatch"
	case DanglingEdge:
		return "DanglingEdge"
	case SelfLoop:
		return "SelfLoop"
	case MissingBranch:
		return "MissingBranch"
	case DanglingBranchTarget:
		return "DanglingBranchTarget"
	case BranchOutcome:
		return "BranchOutcome"
	default:
		return "Unknown"
	}
}

// Violation describes one failed structural check
type Violation struct {
	Type     ViolationType
	Severity Severity
	NodeID   string
	EdgeID   string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Type, v.Message)
}

// HasErrors reports whether any violation has Error severity. Warnings never
// block a commit.
func HasErrors(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors filters the violations down to those with Error severity
func Errors(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// ValidateGraph checks every structural invariant of a node/edge set: id
// uniqueness, node type enumeration, payload fields, edge endpoint
// existence, self-loops and branch target resolution. It has no side effects.
func ValidateGraph(nodes []ActivityNode, edges []Edge) []Violation {
	var violations []Violation

	ids := make(map[string]struct{}, len(nodes))
	for i := range nodes {
		id := nodes[i].ID
		if id == "" {
			continue
		}
		if _, dup := ids[id]; dup {
			violations = append(violations, Violation{
				Type: DuplicateID, Severity: SeverityError, NodeID: id,
				Message: fmt.Sprintf("node id %q is used more than once", id),
			})
		}
		ids[id] = struct{}{}
	}
	exists := func(id string) bool {
		_, ok := ids[id]
		return ok
	}

	for i := range nodes {
		violations = append(violations, ValidateNode(&nodes[i], exists)...)
	}

	edgeIDs := make(map[string]struct{}, len(edges))
	for i := range edges {
		e := &edges[i]
		if e.ID != "" {
			if _, dup := edgeIDs[e.ID]; dup {
				violations = append(violations, Violation{
					Type: DuplicateID, Severity: SeverityError, EdgeID: e.ID,
					Message: fmt.Sprintf("edge id %q is used more than once", e.ID),
				})
			}
			edgeIDs[e.ID] = struct{}{}
		}
		violations = append(violations, ValidateEdge(e, exists)...)
	}

	return violations
}

// ValidateNode checks a single node. exists resolves branch targets against
// the node's path.
func ValidateNode(n *ActivityNode, exists func(id string) bool) []Violation {
	var violations []Violation
	add := func(t ViolationType, sev Severity, format string, args ...any) {
		violations = append(violations, Violation{
			Type: t, Severity: sev, NodeID: n.ID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if n.ID == "" {
		add(MissingID, SeverityError, "node id is empty")
	}
	if !n.Type.Valid() {
		add(UnknownType, SeverityError, "node %s has unknown type %q", n.ID, n.Type)
	}
	// Content is reached by the nested struct walk.
	for _, err := range validation.StructErrors(&n.Data) {
		add(InvalidField, SeverityError, "node %s: %v", n.ID, err)
	}
	if n.Data.Phase != "" && !n.Data.Phase.Valid() {
		add(InvalidField, SeverityError, "node %s has unknown phase %q", n.ID, n.Data.Phase)
	}

	if c := n.Data.Content; c != nil {
		if n.Type.Valid() && c.Category() != n.Type.Category() {
			add(ContentMismatch, SeverityError, "node %s of type %s carries %s content", n.ID, n.Type, c.Category())
		}
	}

	b := n.Data.Branch
	if n.Data.IsConditional && (b == nil || len(b.Paths) == 0) {
		add(MissingBranch, SeverityError, "conditional node %s has no branch paths", n.ID)
	}
	if b == nil {
		return violations
	}

	if !b.Type.Valid() {
		add(InvalidField, SeverityError, "node %s has unknown branch type %q", n.ID, b.Type)
	}
	var pass, remedial int
	for i := range b.Paths {
		p := &b.Paths[i]
		switch {
		case p.NextNodeID == "":
			add(DanglingBranchTarget, SeverityError, "branch path %q of node %s has no target", p.ID, n.ID)
		case p.NextNodeID == n.ID:
			add(SelfLoop, SeverityError, "branch path %q of node %s targets itself", p.ID, n.ID)
		case exists != nil && !exists(p.NextNodeID):
			add(DanglingBranchTarget, SeverityError, "branch path %q of node %s targets unknown node %s", p.ID, n.ID, p.NextNodeID)
		}
		if p.Outcome != "" && !p.Outcome.Valid() {
			add(InvalidField, SeverityError, "branch path %q of node %s has unknown outcome %q", p.ID, n.ID, p.Outcome)
		}
		if p.Condition != nil {
			for _, err := range validation.StructErrors(p.Condition) {
				add(InvalidField, SeverityError, "branch path %q condition: %v", p.ID, err)
			}
		}
		switch p.Outcome {
		case OutcomePass:
			pass++
		case OutcomeRemedial:
			remedial++
		}
	}

	if b.Type == BranchCheckpoint && len(b.Paths) > 0 {
		if pass != 1 {
			add(BranchOutcome, SeverityWarning, "checkpoint %s has %d pass paths, expected exactly one", n.ID, pass)
		}
		if remedial > 1 {
			add(BranchOutcome, SeverityWarning, "checkpoint %s has %d remedial paths, expected at most one", n.ID, remedial)
		}
	}

	return violations
}

// ValidateEdge checks a single edge. exists resolves its endpoints.
func ValidateEdge(e *Edge, exists func(id string) bool) []Violation {
	var violations []Violation
	add := func(t ViolationType, format string, args ...any) {
		violations = append(violations, Violation{
			Type: t, Severity: SeverityError, EdgeID: e.ID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if e.ID == "" {
		add(MissingID, "edge id is empty")
	}
	if e.Type != "" && e.Type != EdgeTypeDefault && e.Type != EdgeTypeConditional {
		add(UnknownType, "edge %s has unknown type %q", e.ID, e.Type)
	}
	if e.Source == e.Target {
		add(SelfLoop, "edge %s connects node %s to itself", e.ID, e.Source)
	}
	if !exists(e.Source) {
		add(DanglingEdge, "edge %s references missing source node %q", e.ID, e.Source)
	}
	if !exists(e.Target) {
		add(DanglingEdge, "edge %s references missing target node %q", e.ID, e.Target)
	}
	if e.Data != nil {
		for _, err := range validation.StructErrors(e.Data) {
			add(InvalidField, "edge %s: %v", e.ID, err)
		}
	}

	return violations
}
