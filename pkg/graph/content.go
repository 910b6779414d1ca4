package graph

import (
	"encoding/json"
	"fmt"
)

// Content is the per-type payload of an activity node. Each variant belongs
// to exactly one Category and may only be attached to node types of that
// category.
type Content interface {
	Category() Category
}

// MediaContent is the payload of content delivery activities
type MediaContent struct {
	DurationMinutes int    `json:"durationMinutes,omitempty" validate:"gte=0,lte=600"`
	ResourceURL     string `json:"resourceUrl,omitempty" validate:"omitempty,url"`
	Body            string `json:"body,omitempty"`
}

// PracticeContent is the payload of exercises and quizzes
type PracticeContent struct {
	QuestionCount int     `json:"questionCount,omitempty" validate:"gte=0,lte=500"`
	PassingScore  float64 `json:"passingScore,omitempty" validate:"gte=0,lte=100"`
	MaxAttempts   int     `json:"maxAttempts,omitempty" validate:"gte=0"`
}

// CheckpointContent is the payload of checkpoint activities
type CheckpointContent struct {
	Metric       string  `json:"metric,omitempty" validate:"max=100"`
	PassingScore float64 `json:"passingScore" validate:"gte=0,lte=100"`
}

// RemedialContent is the payload of remedial activities
type RemedialContent struct {
	TargetSkill string   `json:"targetSkill,omitempty" validate:"max=200"`
	Reviews     []string `json:"reviews,omitempty"`
}

// GroupContent is the payload of collaborative activities
type GroupContent struct {
	GroupSize int      `json:"groupSize" validate:"gte=0,lte=50"`
	Roles     []string `json:"roles,omitempty"`
}

// AIContent is the payload of AI-driven activities
type AIContent struct {
	Model    string `json:"model,omitempty" validate:"max=100"`
	Prompt   string `json:"prompt,omitempty" validate:"max=4000"`
	Adaptive bool   `json:"adaptive,omitempty"`
}

func (*MediaContent) Category() Category      { return CategoryMedia }
func (*PracticeContent) Category() Category   { return CategoryPractice }
func (*CheckpointContent) Category() Category { return CategoryCheckpoint }
func (*RemedialContent) Category() Category   { return CategoryRemedial }
func (*GroupContent) Category() Category      { return CategoryGroup }
func (*AIContent) Category() Category         { return CategoryAI }

// newContent returns an empty payload for the category
func newContent(c Category) (Content, error) {
	switch c {
	case CategoryMedia:
		return &MediaContent{}, nil
	case CategoryPractice:
		return &PracticeContent{}, nil
	case CategoryCheckpoint:
		return &CheckpointContent{}, nil
	case CategoryRemedial:
		return &RemedialContent{}, nil
	case CategoryGroup:
		return &GroupContent{}, nil
	case CategoryAI:
		return &AIContent{}, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", c)
	}
}

// cloneContent deep-copies a payload
func cloneContent(c Content) Content {
	switch v := c.(type) {
	case nil:
		return nil
	case *MediaContent:
		cp := *v
		return &cp
	case *PracticeContent:
		cp := *v
		return &cp
	case *CheckpointContent:
		cp := *v
		return &cp
	case *RemedialContent:
		cp := *v
		cp.Reviews = append([]string(nil), v.Reviews...)
		return &cp
	case *GroupContent:
		cp := *v
		cp.Roles = append([]string(nil), v.Roles...)
		return &cp
	case *AIContent:
		cp := *v
		return &cp
	default:
		return c
	}
}

type nodeDataAlias NodeData

// nodeDataWire carries the content tagged with its kind so decoding can pick
// the right variant without knowing the node type.
type nodeDataWire struct {
	*nodeDataAlias
	ContentKind Category        `json:"contentKind,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// MarshalJSON encodes the node data with a tagged content payload
func (d NodeData) MarshalJSON() ([]byte, error) {
	alias := nodeDataAlias(d)
	w := nodeDataWire{nodeDataAlias: &alias}
	if d.Content != nil {
		raw, err := json.Marshal(d.Content)
		if err != nil {
			return nil, fmt.Errorf("marshal content: %w", err)
		}
		w.ContentKind = d.Content.Category()
		w.Content = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes node data, resolving the content variant from its tag
func (d *NodeData) UnmarshalJSON(b []byte) error {
	w := nodeDataWire{nodeDataAlias: (*nodeDataAlias)(d)}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	d.Content = nil
	if w.ContentKind == "" || len(w.Content) == 0 || string(w.Content) == "null" {
		return nil
	}
	c, err := newContent(w.ContentKind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(w.Content, c); err != nil {
		return fmt.Errorf("decode %s content: %w", w.ContentKind, err)
	}
	d.Content = c
	return nil
}
