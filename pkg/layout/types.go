// Package layout computes deterministic left-to-right layered layouts of
// lesson graphs: ranked placement, branch-level offsets and edge styles
// derived from branch outcomes. It never mutates the graph it is given.
package layout

import (
	"errors"
	"sort"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
)

// Mode controls which stored positions survive a computation
type Mode int

const (
	// Incremental keeps every stored position and places only unplaced nodes
	Incremental Mode = iota
	// Full recomputes every node except pinned ones
	Full
	// IgnoreStoredPositions recomputes every node, pinned or not
	IgnoreStoredPositions
)

func (m Mode) String() string {
	switch m {
	case Incremental:
		return "incremental"
	case Full:
		return "full"
	case IgnoreStoredPositions:
		return "ignore_stored"
	default:
		return "unknown"
	}
}

// BranchLevel is the vertical band a node is drawn in
type BranchLevel string

const (
	LevelMain     BranchLevel = "main"
	LevelRemedial BranchLevel = "remedial"
	LevelAdvanced BranchLevel = "advanced"
)

// Config configures layout geometry
type Config struct {
	OriginX      float64 `yaml:"origin_x" json:"originX"`
	OriginY      float64 `yaml:"origin_y" json:"originY"`
	RankSpacing  float64 `yaml:"rank_spacing" json:"rankSpacing"`   // horizontal distance between ranks
	NodeSpacing  float64 `yaml:"node_spacing" json:"nodeSpacing"`   // vertical distance within a rank
	BranchOffset float64 `yaml:"branch_offset" json:"branchOffset"` // band shift for remedial and advanced nodes
	CacheSize    int     `yaml:"cache_size" json:"cacheSize"`
}

// DefaultConfig returns the default geometry
func DefaultConfig() Config {
	return Config{
		OriginX:      120,
		OriginY:      80,
		RankSpacing:  280,
		NodeSpacing:  140,
		BranchOffset: 160,
		CacheSize:    64,
	}
}

// Input is one layout request
type Input struct {
	Nodes []graph.ActivityNode
	Edges []graph.Edge
	// Hints override inferred branch levels per node id
	Hints map[string]BranchLevel
	Mode  Mode
}

// PositionedNode is a node's computed geometry
type PositionedNode struct {
	ID    string      `json:"id"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Rank  int         `json:"rank"`
	Level BranchLevel `json:"level"`
	// Preserved is set when the node kept its stored position
	Preserved bool `json:"preserved,omitempty"`
}

// Style is the render descriptor of an edge
type Style struct {
	Stroke   string  `json:"stroke"`
	Width    float64 `json:"width"`
	Dash     string  `json:"dash,omitempty"`
	Animated bool    `json:"animated,omitempty"`
}

// StyledEdge is an edge ready for rendering
type StyledEdge struct {
	ID      string        `json:"id"`
	Source  string        `json:"source"`
	Target  string        `json:"target"`
	Label   string        `json:"label,omitempty"`
	Outcome graph.Outcome `json:"outcome,omitempty"`
	Style   Style         `json:"style"`
}

// IssueKind classifies malformed layout input
type IssueKind string

const (
	IssueDanglingEdge     IssueKind = "dangling_edge"
	IssueSelfLoop         IssueKind = "self_loop"
	IssueDuplicateNode    IssueKind = "duplicate_node"
	IssueUnresolvedBranch IssueKind = "unresolved_branch"
)

// Issue is input the engine skipped instead of failing on
type Issue struct {
	Kind    IssueKind `json:"kind"`
	NodeID  string    `json:"nodeId,omitempty"`
	EdgeID  string    `json:"edgeId,omitempty"`
	Message string    `json:"message"`
}

// Err returns the issue as a layout input error
func (i Issue) Err() error {
	b := graph.NewError("Layout").Cause(errors.New(i.Message))
	if i.EdgeID != "" {
		b = b.Edge(i.EdgeID)
	} else if i.NodeID != "" {
		b = b.Node(i.NodeID)
	}
	return b.LayoutInput()
}

// Result is the render-ready output of a computation, sorted by id
type Result struct {
	Nodes  []PositionedNode `json:"nodes"`
	Edges  []StyledEdge     `json:"edges"`
	Issues []Issue          `json:"issues,omitempty"`
}

// Node returns the positioned node with id
func (r *Result) Node(id string) (PositionedNode, bool) {
	i := sort.Search(len(r.Nodes), func(i int) bool { return r.Nodes[i].ID >= id })
	if i < len(r.Nodes) && r.Nodes[i].ID == id {
		return r.Nodes[i], true
	}
	return PositionedNode{}, false
}

// Edge returns the styled edge with id
func (r *Result) Edge(id string) (StyledEdge, bool) {
	i := sort.Search(len(r.Edges), func(i int) bool { return r.Edges[i].ID >= id })
	if i < len(r.Edges) && r.Edges[i].ID == id {
		return r.Edges[i], true
	}
	return StyledEdge{}, false
}

// IssueKinds returns the kind of every issue, for metrics
func (r *Result) IssueKinds() []string {
	kinds := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		kinds[i] = string(is.Kind)
	}
	return kinds
}
