// Package recommend produces starter learning paths from a learner record.
// The Analyzer is the boundary to any recommendation source; RuleAnalyzer is
// a deterministic local implementation.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/validation"
	"github.com/google/uuid"
)

// Record is the learner data an analysis starts from
type Record struct {
	OwnerID      string             `json:"ownerId" validate:"required,max=128"`
	OwnerName    string             `json:"ownerName" validate:"max=200"`
	Subject      string             `json:"subject" validate:"required,max=150"`
	Scores       map[string]float64 `json:"scores" validate:"dive,keys,required,max=100,endkeys,gte=0,lte=100"` // skill -> score
	PassingScore float64            `json:"passingScore" validate:"gte=0,lte=100"`
}

// Validate checks the record's fields
func (r *Record) Validate() error {
	if err := validation.ValidateID(r.OwnerID); err != nil {
		return err
	}
	return validation.Struct(r)
}

// Analysis is a proposed graph with its recommendation summary
type Analysis struct {
	Nodes          []graph.ActivityNode
	Edges          []graph.Edge
	Recommendation graph.Recommendation
}

// Analyzer turns a record into a proposed path
type Analyzer interface {
	Analyze(ctx context.Context, rec Record) (*Analysis, error)
}

// DefaultPassingScore is the checkpoint threshold when a record has none
const DefaultPassingScore = 70

// FocusThreshold is the score below which a skill becomes a focus area
const FocusThreshold = 60

// namespace scopes the name-based ids of generated paths
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lessongraph/recommend"))

// RuleAnalyzer builds the same path for the same record every time
type RuleAnalyzer struct {
	latency time.Duration
}

// RuleOption configures a RuleAnalyzer
type RuleOption func(*RuleAnalyzer)

// WithLatency makes Analyze wait d before answering, as a remote source would
func WithLatency(d time.Duration) RuleOption {
	return func(a *RuleAnalyzer) { a.latency = d }
}

// NewRuleAnalyzer creates a rule-based analyzer
func NewRuleAnalyzer(opts ...RuleOption) *RuleAnalyzer {
	a := &RuleAnalyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// slot minutes used for the estimate
var slotMinutes = map[string]int{
	"intro": 8, "lesson": 15, "practice": 20, "check": 10, "review": 12,
	"differentiate": 5, "challenge": 20, "core": 15, "support": 15, "wrapup": 10,
}

// Analyze implements Analyzer
func (a *RuleAnalyzer) Analyze(ctx context.Context, rec Record) (*Analysis, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	if a.latency > 0 {
		select {
		case <-time.After(a.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pass := rec.PassingScore
	if pass == 0 {
		pass = DefaultPassingScore
	}
	focus := focusAreas(rec.Scores)
	weakest := rec.Subject
	if len(focus) > 0 {
		weakest = focus[0]
	}

	id := func(slot string) string {
		return uuid.NewSHA1(namespace, []byte(rec.OwnerID+"/"+slot)).String()
	}
	gte := func(v float64) *graph.Condition {
		return &graph.Condition{Metric: "score", Comparator: graph.ComparatorGTE, Threshold: v}
	}
	lt := func(v float64) *graph.Condition {
		return &graph.Condition{Metric: "score", Comparator: graph.ComparatorLT, Threshold: v}
	}
	advanced := math.Min(100, pass+20)

	b := &pathBuilder{id: id}
	b.node("intro", graph.NodeTypeVideo, "Warm-up: "+rec.Subject, &graph.MediaContent{DurationMinutes: slotMinutes["intro"]})
	b.node("lesson", graph.NodeTypeLecture, rec.Subject+" core ideas", &graph.MediaContent{DurationMinutes: slotMinutes["lesson"]})
	b.node("practice", graph.NodeTypeExercise, "Guided practice", &graph.PracticeContent{QuestionCount: 8, PassingScore: pass, MaxAttempts: 3})
	b.branch("check", graph.NodeTypeCheckpoint, "Checkpoint", &graph.CheckpointContent{Metric: "score", PassingScore: pass},
		graph.BranchCheckpoint,
		branchTo{slot: "differentiate", label: "✓ Mastered", cond: gte(pass), outcome: graph.OutcomePass},
		branchTo{slot: "review", label: "✗ Review " + weakest, cond: lt(pass), outcome: graph.OutcomeRemedial},
	)
	b.node("review", graph.NodeTypeRemedial, "Review "+weakest, &graph.RemedialContent{TargetSkill: weakest, Reviews: focus})
	b.branch("differentiate", graph.NodeTypeAITutor, "Choose your track", &graph.AIContent{Model: "rules", Adaptive: true},
		graph.BranchDifferentiation,
		branchTo{slot: "challenge", label: "Challenge", cond: gte(advanced), outcome: graph.OutcomeAdvanced},
		branchTo{slot: "core", label: "Standard", cond: gte(pass), outcome: graph.OutcomeStandard},
		branchTo{slot: "support", label: "Support", cond: lt(pass), outcome: graph.OutcomeRemedial},
	)
	b.node("challenge", graph.NodeTypeExercise, "Challenge set", &graph.PracticeContent{QuestionCount: 5, PassingScore: advanced})
	b.node("core", graph.NodeTypeQuiz, "Standard quiz", &graph.PracticeContent{QuestionCount: 10, PassingScore: pass})
	b.node("support", graph.NodeTypeAIPractice, "Adaptive support", &graph.AIContent{Model: "rules", Adaptive: true})
	b.node("wrapup", graph.NodeTypeDiscussion, "Wrap-up discussion", &graph.GroupContent{GroupSize: 4})

	b.edge("intro", "lesson")
	b.edge("lesson", "practice")
	b.edge("practice", "check")
	b.edge("review", "check")
	b.edge("challenge", "wrapup")
	b.edge("core", "wrapup")
	b.edge("support", "wrapup")

	minutes := 0
	for _, m := range slotMinutes {
		minutes += m
	}

	return &Analysis{
		Nodes: b.nodes,
		Edges: b.edges,
		Recommendation: graph.Recommendation{
			Summary:          fmt.Sprintf("%s path for %s with %d focus areas", difficulty(rec.Scores, pass), rec.Subject, len(focus)),
			FocusAreas:       focus,
			EstimatedMinutes: minutes,
			Difficulty:       difficulty(rec.Scores, pass),
		},
	}, nil
}

// focusAreas returns skills under FocusThreshold, weakest first
func focusAreas(scores map[string]float64) []string {
	var skills []string
	for skill, score := range scores {
		if score < FocusThreshold {
			skills = append(skills, skill)
		}
	}
	sort.Slice(skills, func(i, j int) bool {
		si, sj := scores[skills[i]], scores[skills[j]]
		if si != sj {
			return si < sj
		}
		return skills[i] < skills[j]
	})
	return skills
}

func difficulty(scores map[string]float64, pass float64) string {
	if len(scores) == 0 {
		return "standard"
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	switch {
	case avg < FocusThreshold:
		return "foundational"
	case avg < pass+15:
		return "standard"
	default:
		return "advanced"
	}
}

type branchTo struct {
	slot    string
	label   string
	cond    *graph.Condition
	outcome graph.Outcome
}

// pathBuilder assembles generated nodes and edges with name-based ids
type pathBuilder struct {
	id    func(slot string) string
	nodes []graph.ActivityNode
	edges []graph.Edge
}

func (b *pathBuilder) node(slot string, t graph.NodeType, label string, content graph.Content) *graph.ActivityNode {
	b.nodes = append(b.nodes, graph.ActivityNode{
		ID:   b.id(slot),
		Type: t,
		Data: graph.NodeData{
			Label:       label,
			Content:     content,
			Status:      graph.StatusPending,
			Required:    true,
			AIGenerated: true,
		},
	})
	return &b.nodes[len(b.nodes)-1]
}

func (b *pathBuilder) branch(slot string, t graph.NodeType, label string, content graph.Content, bt graph.BranchType, paths ...branchTo) {
	n := b.node(slot, t, label, content)
	n.Data.IsConditional = true
	n.Data.Branch = &graph.BranchControl{Type: bt}
	for _, p := range paths {
		n.Data.Branch.Paths = append(n.Data.Branch.Paths, graph.BranchPath{
			ID:         b.id(slot + "->" + p.slot),
			Label:      p.label,
			NextNodeID: b.id(p.slot),
			Condition:  p.cond,
			Outcome:    p.outcome,
		})
		b.edges = append(b.edges, graph.Edge{
			ID:     b.id("edge:" + slot + "->" + p.slot),
			Source: b.id(slot),
			Target: b.id(p.slot),
			Type:   graph.EdgeTypeConditional,
			Data:   &graph.EdgeData{Label: p.label, Condition: p.cond},
		})
	}
}

func (b *pathBuilder) edge(from, to string) {
	b.edges = append(b.edges, graph.Edge{
		ID:     b.id("edge:" + from + "->" + to),
		Source: b.id(from),
		Target: b.id(to),
		Type:   graph.EdgeTypeDefault,
	})
}
