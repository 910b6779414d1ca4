// Package graph defines the lesson graph data model: activity nodes, edges,
// branch controls and the learning path aggregate, plus the structural
// validation every mutation must pass.
package graph

import "time"

// NodeType is the closed enumeration of activity kinds
type NodeType string

const (
	// Content delivery
	NodeTypeContent NodeType = "content"
	NodeTypeVideo   NodeType = "video"
	NodeTypeReading NodeType = "reading"
	NodeTypeLecture NodeType = "lecture"

	// Exercises
	NodeTypeExercise NodeType = "exercise"
	NodeTypeQuiz     NodeType = "quiz"

	NodeTypeCheckpoint NodeType = "checkpoint"
	NodeTypeRemedial   NodeType = "remedial"

	// Collaborative
	NodeTypeGroupWork  NodeType = "group-work"
	NodeTypeDiscussion NodeType = "discussion"

	// AI-driven variants
	NodeTypeAITutor    NodeType = "ai-tutor"
	NodeTypeAIPractice NodeType = "ai-practice"
	NodeTypeAIFeedback NodeType = "ai-feedback"
)

// Category groups node types that share a content payload shape
type Category string

const (
	CategoryMedia      Category = "media"
	CategoryPractice   Category = "practice"
	CategoryCheckpoint Category = "checkpoint"
	CategoryRemedial   Category = "remedial"
	CategoryGroup      Category = "group"
	CategoryAI         Category = "ai"
)

var nodeCategories = map[NodeType]Category{
	NodeTypeContent:    CategoryMedia,
	NodeTypeVideo:      CategoryMedia,
	NodeTypeReading:    CategoryMedia,
	NodeTypeLecture:    CategoryMedia,
	NodeTypeExercise:   CategoryPractice,
	NodeTypeQuiz:       CategoryPractice,
	NodeTypeCheckpoint: CategoryCheckpoint,
	NodeTypeRemedial:   CategoryRemedial,
	NodeTypeGroupWork:  CategoryGroup,
	NodeTypeDiscussion: CategoryGroup,
	NodeTypeAITutor:    CategoryAI,
	NodeTypeAIPractice: CategoryAI,
	NodeTypeAIFeedback: CategoryAI,
}

// Valid reports whether t belongs to the enumeration
func (t NodeType) Valid() bool {
	_, ok := nodeCategories[t]
	return ok
}

// Category returns the payload category of the node type, or "" for unknown types
func (t NodeType) Category() Category {
	return nodeCategories[t]
}

// NodeTypes returns every known node type in a stable order
func NodeTypes() []NodeType {
	return []NodeType{
		NodeTypeContent, NodeTypeVideo, NodeTypeReading, NodeTypeLecture,
		NodeTypeExercise, NodeTypeQuiz,
		NodeTypeCheckpoint, NodeTypeRemedial,
		NodeTypeGroupWork, NodeTypeDiscussion,
		NodeTypeAITutor, NodeTypeAIPractice, NodeTypeAIFeedback,
	}
}

// Status is the learner progress state of an activity
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Position represents a 2D canvas coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the authored payload of an activity node
type NodeData struct {
	Label         string         `json:"label" validate:"max=200"`
	Description   string         `json:"description,omitempty" validate:"max=2000"`
	Content       Content        `json:"-"`
	Status        Status         `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed failed"`
	Required      bool           `json:"required,omitempty"`
	AIGenerated   bool           `json:"aiGenerated,omitempty"`
	IsConditional bool           `json:"isConditional,omitempty"`
	Branch        *BranchControl `json:"branch,omitempty"`
	Phase         Phase          `json:"phase,omitempty"`
}

// ActivityNode is one unit of learning content in a path.
// Position is nil until the node has been placed; Pinned marks a position
// that came from a manual drag and must survive relayout.
type ActivityNode struct {
	ID       string    `json:"id"`
	Type     NodeType  `json:"type"`
	Position *Position `json:"position,omitempty"`
	Pinned   bool      `json:"pinned,omitempty"`
	Data     NodeData  `json:"data"`
}

// EffectivePhase returns the node's phase, inferring it from the type when unset
func (n *ActivityNode) EffectivePhase() Phase {
	if n.Data.Phase != "" {
		return n.Data.Phase
	}
	return DefaultPhase(n.Type)
}

// EdgeType distinguishes unconditional from conditional transitions
type EdgeType string

const (
	EdgeTypeDefault     EdgeType = "default"
	EdgeTypeConditional EdgeType = "conditional"
)

// Comparator is the relational operator of a condition
type Comparator string

const (
	ComparatorLT  Comparator = "lt"
	ComparatorLTE Comparator = "lte"
	ComparatorGT  Comparator = "gt"
	ComparatorGTE Comparator = "gte"
	ComparatorEQ  Comparator = "eq"
)

// Condition compares a named learner metric against a threshold
type Condition struct {
	Metric     string     `json:"metric" validate:"required,max=100"`
	Comparator Comparator `json:"comparator" validate:"required,oneof=lt lte gt gte eq"`
	Threshold  float64    `json:"threshold"`
}

// Evaluate reports whether value satisfies the condition
func (c *Condition) Evaluate(value float64) bool {
	switch c.Comparator {
	case ComparatorLT:
		return value < c.Threshold
	case ComparatorLTE:
		return value <= c.Threshold
	case ComparatorGT:
		return value > c.Threshold
	case ComparatorGTE:
		return value >= c.Threshold
	case ComparatorEQ:
		return value == c.Threshold
	default:
		return false
	}
}

// EdgeData is the optional payload of an edge
type EdgeData struct {
	Label     string     `json:"label,omitempty" validate:"max=200"`
	Condition *Condition `json:"condition,omitempty"`
	Style     string     `json:"style,omitempty"`
}

// Edge is a directed connection between two node ids of the same path
type Edge struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Target string    `json:"target"`
	Type   EdgeType  `json:"type,omitempty"`
	Data   *EdgeData `json:"data,omitempty"`
}

// Label returns the edge label or "" when the edge has no data
func (e *Edge) Label() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.Label
}

// Touches reports whether the edge starts or ends at nodeID
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Viewport is the pan/zoom state of the authoring canvas
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Progress summarizes learner completion over a path
type Progress struct {
	CompletedNodeCount int `json:"completedNodeCount"`
	TotalNodeCount     int `json:"totalNodeCount"`
}

// Recommendation is the analysis summary attached to a generated path
type Recommendation struct {
	Summary          string   `json:"summary"`
	FocusAreas       []string `json:"focusAreas,omitempty"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
}

// LearningPath is the aggregate root: one per owner
type LearningPath struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	OwnerName      string          `json:"ownerName"`
	Nodes          []ActivityNode  `json:"nodes"`
	Edges          []Edge          `json:"edges"`
	Viewport       Viewport        `json:"viewport"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastModified   time.Time       `json:"lastModified"`
	Progress       Progress        `json:"progress"`
	Recommendation *Recommendation `json:"aiRecommendation,omitempty"`
}

// NewLearningPath returns an empty path for the owner
func NewLearningPath(ownerID, ownerName string, now time.Time) *LearningPath {
	return &LearningPath{
		ID:           "path-" + ownerID,
		OwnerID:      ownerID,
		OwnerName:    ownerName,
		Nodes:        []ActivityNode{},
		Edges:        []Edge{},
		Viewport:     Viewport{Zoom: 1},
		CreatedAt:    now,
		LastModified: now,
	}
}

// FindNode returns the index of the node with id, or -1
func (p *LearningPath) FindNode(id string) int {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// FindEdge returns the index of the edge with id, or -1
func (p *LearningPath) FindEdge(id string) int {
	for i := range p.Edges {
		if p.Edges[i].ID == id {
			return i
		}
	}
	return -1
}

// RecomputeProgress refreshes the progress counters from node statuses
func (p *LearningPath) RecomputeProgress() {
	completed := 0
	for i := range p.Nodes {
		if p.Nodes[i].Data.Status == StatusCompleted {
			completed++
		}
	}
	p.Progress = Progress{
		CompletedNodeCount: completed,
		TotalNodeCount:     len(p.Nodes),
	}
}
