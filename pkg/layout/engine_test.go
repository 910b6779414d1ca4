package layout

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, t graph.NodeType) graph.ActivityNode {
	return graph.ActivityNode{ID: id, Type: t, Data: graph.NodeData{Label: id}}
}

func edge(id, source, target string) graph.Edge {
	return graph.Edge{ID: id, Source: source, Target: target, Type: graph.EdgeTypeDefault}
}

func branching(id string, bt graph.BranchType, paths ...graph.BranchPath) graph.ActivityNode {
	n := node(id, graph.NodeTypeCheckpoint)
	n.Data.IsConditional = true
	n.Data.Branch = &graph.BranchControl{Type: bt, Paths: paths}
	return n
}

// remedialLesson is intro -> check, with check branching to next on pass
// and to review on remedial; review loops back to check.
func remedialLesson() Input {
	return Input{
		Nodes: []graph.ActivityNode{
			node("intro", graph.NodeTypeVideo),
			branching("check", graph.BranchCheckpoint,
				graph.BranchPath{ID: "p1", Label: "✓ Pass", NextNodeID: "next", Outcome: graph.OutcomePass},
				graph.BranchPath{ID: "p2", Label: "✗ Review", NextNodeID: "review", Outcome: graph.OutcomeRemedial},
			),
			node("next", graph.NodeTypeExercise),
			node("review", graph.NodeTypeRemedial),
		},
		Edges: []graph.Edge{
			edge("e1", "intro", "check"),
			edge("e2", "check", "next"),
			edge("e3", "check", "review"),
			edge("e4", "review", "check"),
		},
	}
}

func mustNode(t *testing.T, r *Result, id string) PositionedNode {
	t.Helper()
	n, ok := r.Node(id)
	require.True(t, ok, "node %s missing from result", id)
	return n
}

func TestCompute_Ranks(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []string
		edges    [][2]string
		expected map[string][2]float64
	}{
		{
			name:  "chain",
			nodes: []string{"a", "b", "c"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			expected: map[string][2]float64{
				"a": {120, 80}, "b": {400, 80}, "c": {680, 80},
			},
		},
		{
			name:  "diamond",
			nodes: []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
			expected: map[string][2]float64{
				"a": {120, 80}, "b": {400, 10}, "c": {400, 150}, "d": {680, 80},
			},
		},
		{
			name:  "longest path wins",
			nodes: []string{"a", "b", "c"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
			expected: map[string][2]float64{
				"a": {120, 80}, "b": {400, 80}, "c": {680, 80},
			},
		},
		{
			name:  "cycle without source enters at first input node",
			nodes: []string{"b", "c", "a"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
			expected: map[string][2]float64{
				"b": {120, 80}, "c": {400, 80}, "a": {680, 80},
			},
		},
		{
			name:  "disconnected nodes share rank zero",
			nodes: []string{"y", "x"},
			expected: map[string][2]float64{
				"x": {120, 10}, "y": {120, 150},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{}
			for _, id := range tt.nodes {
				in.Nodes = append(in.Nodes, node(id, graph.NodeTypeContent))
			}
			for i, e := range tt.edges {
				in.Edges = append(in.Edges, edge(fmt.Sprintf("e%d", i), e[0], e[1]))
			}

			res := NewEngine(DefaultConfig()).Compute(in)
			require.Len(t, res.Nodes, len(tt.nodes))
			assert.Empty(t, res.Issues)
			for id, xy := range tt.expected {
				n := mustNode(t, res, id)
				assert.Equal(t, xy[0], n.X, "x of %s", id)
				assert.Equal(t, xy[1], n.Y, "y of %s", id)
			}
		})
	}
}

func TestCompute_BranchOffsetsAndStyles(t *testing.T) {
	res := NewEngine(DefaultConfig()).Compute(remedialLesson())

	assert.Equal(t, PositionedNode{ID: "intro", X: 120, Y: 80, Rank: 0, Level: LevelMain}, mustNode(t, res, "intro"))
	assert.Equal(t, PositionedNode{ID: "check", X: 400, Y: 80, Rank: 1, Level: LevelMain}, mustNode(t, res, "check"))
	assert.Equal(t, PositionedNode{ID: "next", X: 680, Y: 80, Rank: 2, Level: LevelMain}, mustNode(t, res, "next"))
	assert.Equal(t, PositionedNode{ID: "review", X: 680, Y: 240, Rank: 2, Level: LevelRemedial}, mustNode(t, res, "review"),
		"remedial node is pushed below the main band")

	pass, _ := res.Edge("e2")
	assert.Equal(t, stylePass, pass.Style)
	assert.Equal(t, "✓ Pass", pass.Label)
	assert.Equal(t, graph.OutcomePass, pass.Outcome)

	remedial, _ := res.Edge("e3")
	assert.Equal(t, styleRemedial, remedial.Style)
	assert.Equal(t, graph.OutcomeRemedial, remedial.Outcome)

	back, _ := res.Edge("e4")
	assert.Equal(t, styleDefault, back.Style, "edges out of plain nodes keep the default style")
}

func TestCompute_AdvancedOffsetAndHints(t *testing.T) {
	in := Input{
		Nodes: []graph.ActivityNode{
			branching("d", graph.BranchDifferentiation,
				graph.BranchPath{ID: "a", NextNodeID: "hard", Outcome: graph.OutcomeAdvanced},
				graph.BranchPath{ID: "s", NextNodeID: "core", Outcome: graph.OutcomeStandard},
				graph.BranchPath{ID: "r", NextNodeID: "easy", Outcome: graph.OutcomeRemedial},
			),
			node("hard", graph.NodeTypeExercise),
			node("core", graph.NodeTypeExercise),
			node("easy", graph.NodeTypeExercise),
		},
		Edges: []graph.Edge{edge("e1", "d", "hard"), edge("e2", "d", "core"), edge("e3", "d", "easy")},
	}
	engine := NewEngine(DefaultConfig())

	res := engine.Compute(in)
	assert.Equal(t, -80.0, mustNode(t, res, "hard").Y)
	assert.Equal(t, 80.0, mustNode(t, res, "core").Y)
	assert.Equal(t, 240.0, mustNode(t, res, "easy").Y)

	adv, _ := res.Edge("e1")
	std, _ := res.Edge("e2")
	rem, _ := res.Edge("e3")
	assert.Equal(t, styleAdvanced, adv.Style)
	assert.Equal(t, styleStandard, std.Style)
	assert.Equal(t, styleRemedial, rem.Style)

	in.Hints = map[string]BranchLevel{"core": LevelRemedial, "ghost": LevelAdvanced}
	res = engine.Compute(in)
	core := mustNode(t, res, "core")
	assert.Equal(t, LevelRemedial, core.Level, "hints override inferred levels")
	assert.Len(t, res.Nodes, 4)
}

func TestCompute_MultiChoicePalette(t *testing.T) {
	var paths []graph.BranchPath
	in := Input{}
	for i := 0; i < 6; i++ {
		target := fmt.Sprintf("o%d", i)
		paths = append(paths, graph.BranchPath{ID: target, NextNodeID: target, Outcome: graph.OutcomeNeutral})
		in.Nodes = append(in.Nodes, node(target, graph.NodeTypeQuiz))
		in.Edges = append(in.Edges, edge(fmt.Sprintf("e%d", i), "m", target))
	}
	in.Nodes = append(in.Nodes, branching("m", graph.BranchMultiChoice, paths...))

	res := NewEngine(DefaultConfig()).Compute(in)
	for i := 0; i < 6; i++ {
		e, ok := res.Edge(fmt.Sprintf("e%d", i))
		require.True(t, ok)
		assert.Equal(t, multiChoicePalette[i%len(multiChoicePalette)], e.Style.Stroke)
	}
}

func TestCompute_ConditionalWithoutBranchMetadata(t *testing.T) {
	e := edge("e1", "a", "b")
	e.Type = graph.EdgeTypeConditional
	res := NewEngine(DefaultConfig()).Compute(Input{
		Nodes: []graph.ActivityNode{node("a", graph.NodeTypeContent), node("b", graph.NodeTypeContent)},
		Edges: []graph.Edge{e},
	})

	styled, _ := res.Edge("e1")
	assert.Equal(t, styleConditional, styled.Style)
	assert.Equal(t, graph.Outcome(""), styled.Outcome)
}

func TestCompute_MalformedInputDegrades(t *testing.T) {
	rec := logging.NewRecorder()
	reg := metrics.NewRegistry()
	in := remedialLesson()
	in.Nodes[1].Data.Branch.Paths = append(in.Nodes[1].Data.Branch.Paths,
		graph.BranchPath{ID: "p3", NextNodeID: "ghost", Outcome: graph.OutcomeNeutral})
	in.Edges = append(in.Edges, edge("e5", "check", "ghost"), edge("e6", "next", "next"))
	in.Nodes = append(in.Nodes, node("intro", graph.NodeTypeQuiz))

	res := NewEngine(DefaultConfig(), WithLogger(rec), WithMetrics(reg)).Compute(in)

	assert.Len(t, res.Nodes, 4)
	assert.Len(t, res.Edges, 4)
	_, ok := res.Edge("e5")
	assert.False(t, ok, "edge to unknown node is omitted")

	kinds := res.IssueKinds()
	assert.Equal(t, []string{"dangling_edge", "duplicate_node", "self_loop", "unresolved_branch"}, kinds)
	for _, is := range res.Issues {
		assert.ErrorIs(t, is.Err(), graph.ErrLayoutInput)
	}
	assert.Equal(t, 4, rec.Count(logging.WarnLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.LayoutIssuesTotal.WithLabelValues("dangling_edge")))
}

func TestCompute_Deterministic(t *testing.T) {
	in := remedialLesson()
	first, err := json.Marshal(NewEngine(DefaultConfig()).Compute(in))
	require.NoError(t, err)

	engine := NewEngine(DefaultConfig())
	for i := 0; i < 3; i++ {
		again, err := json.Marshal(engine.Compute(in))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	reversed := remedialLesson()
	for i, j := 0, len(reversed.Edges)-1; i < j; i, j = i+1, j-1 {
		reversed.Edges[i], reversed.Edges[j] = reversed.Edges[j], reversed.Edges[i]
	}
	shuffled, err := json.Marshal(engine.Compute(reversed))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(shuffled), "edge order does not affect the result")
}

func TestCompute_Modes(t *testing.T) {
	in := remedialLesson()
	in.Nodes[0].Position = &graph.Position{X: 500, Y: 80}
	in.Nodes[0].Pinned = true
	in.Nodes[2].Position = &graph.Position{X: 9, Y: 9}
	engine := NewEngine(DefaultConfig())

	res := engine.Compute(in)
	assert.Equal(t, 500.0, mustNode(t, res, "intro").X)
	assert.True(t, mustNode(t, res, "intro").Preserved)
	assert.Equal(t, 9.0, mustNode(t, res, "next").X, "incremental keeps every stored position")
	assert.False(t, mustNode(t, res, "check").Preserved)

	in.Mode = Full
	res = engine.Compute(in)
	assert.Equal(t, 500.0, mustNode(t, res, "intro").X, "full keeps pinned positions")
	assert.Equal(t, 680.0, mustNode(t, res, "next").X, "full recomputes unpinned nodes")

	in.Mode = IgnoreStoredPositions
	res = engine.Compute(in)
	assert.Equal(t, 120.0, mustNode(t, res, "intro").X)

	assert.Equal(t, 80.0, in.Nodes[0].Position.Y, "input is never mutated")
}

func TestCompute_IncrementalPreservesExistingPositions(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	in := remedialLesson()

	first := engine.Compute(in)
	for i := range in.Nodes {
		n := mustNode(t, first, in.Nodes[i].ID)
		in.Nodes[i].Position = &graph.Position{X: n.X, Y: n.Y}
	}

	in.Nodes = append(in.Nodes, node("extra", graph.NodeTypeDiscussion))
	in.Edges = append(in.Edges, edge("e9", "next", "extra"))
	second := engine.Compute(in)

	for _, before := range first.Nodes {
		after := mustNode(t, second, before.ID)
		assert.Equal(t, before.X, after.X, before.ID)
		assert.Equal(t, before.Y, after.Y, before.ID)
	}
	assert.Equal(t, 960.0, mustNode(t, second, "extra").X)
}

func TestCompute_CacheReusesBaseLayout(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	in := remedialLesson()
	engine.Compute(in)

	in.Nodes[0].Data.Label = "renamed"
	in.Nodes[0].Data.Status = graph.StatusCompleted
	engine.Compute(in)

	stats := engine.CacheStats()
	assert.Equal(t, int64(1), stats.Hits, "data-only edits reuse the cached ranks")
	assert.Equal(t, int64(1), stats.Misses)

	in.Edges = in.Edges[:3]
	engine.Compute(in)
	assert.Equal(t, int64(2), engine.CacheStats().Misses)

	engine.ClearCache()
	assert.Equal(t, 0, engine.CacheStats().Size)
}

func TestBaseCache_Evicts(t *testing.T) {
	c := newBaseCache(2)
	c.put("a", &base{})
	c.put("b", &base{})
	c.get("a")
	c.put("c", &base{})

	_, ok := c.get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.stats().Size)
}

func TestInferBranchLevels(t *testing.T) {
	nodes := []graph.ActivityNode{
		branching("c", graph.BranchCheckpoint,
			graph.BranchPath{ID: "1", NextNodeID: "x", Outcome: graph.OutcomeRemedial},
			graph.BranchPath{ID: "2", NextNodeID: "y", Outcome: graph.OutcomeAdvanced},
			graph.BranchPath{ID: "3", NextNodeID: "z", Outcome: graph.OutcomePass},
		),
		branching("d", graph.BranchDifferentiation,
			graph.BranchPath{ID: "1", NextNodeID: "x", Outcome: graph.OutcomeAdvanced},
		),
		node("r", graph.NodeTypeRemedial),
	}

	levels := InferBranchLevels(nodes)
	assert.Equal(t, map[string]BranchLevel{
		"x": LevelRemedial,
		"y": LevelAdvanced,
		"r": LevelRemedial,
	}, levels)
}

func TestCircular(t *testing.T) {
	pos := Circular([]string{"a", "b", "c", "d"}, graph.Position{X: 300, Y: 300}, 200)

	assert.Equal(t, graph.Position{X: 300, Y: 100}, pos["a"])
	assert.Equal(t, graph.Position{X: 500, Y: 300}, pos["b"])
	assert.Equal(t, graph.Position{X: 300, Y: 500}, pos["c"])
	assert.Equal(t, graph.Position{X: 100, Y: 300}, pos["d"])
	assert.Empty(t, Circular(nil, graph.Position{}, 10))
}

func TestRanksRespectAcyclicEdges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("forward edges of a DAG increase rank", prop.ForAll(
		func(n int, seeds []int) bool {
			in := Input{}
			for i := 0; i < n; i++ {
				in.Nodes = append(in.Nodes, node(fmt.Sprintf("n%02d", i), graph.NodeTypeContent))
			}
			for k, seed := range seeds {
				a, b := seed%n, (seed/n)%n
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				in.Edges = append(in.Edges, edge(fmt.Sprintf("e%d", k), in.Nodes[a].ID, in.Nodes[b].ID))
			}

			res := NewEngine(DefaultConfig()).Compute(in)
			if len(res.Nodes) != n || len(res.Issues) != 0 {
				return false
			}
			for _, e := range in.Edges {
				src, _ := res.Node(e.Source)
				dst, _ := res.Node(e.Target)
				if src.Rank >= dst.Rank || src.X >= dst.X {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.TestingRun(t)
}

func TestBuildBase_OrdersRankByBarycenter(t *testing.T) {
	// a feeds d and b feeds c, so d sits above c despite sorting after it
	b := buildBase([]string{"a", "b", "c", "d"}, []link{
		{source: "a", target: "d"},
		{source: "b", target: "c"},
	})

	require.Len(t, b.ranks, 2)
	assert.Equal(t, []string{"a", "b"}, b.ranks[0])
	assert.Equal(t, []string{"d", "c"}, b.ranks[1])
	assert.Equal(t, 1, b.rank["c"])
	assert.Equal(t, 1, b.rank["d"])
}
