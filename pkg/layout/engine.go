package layout

import (
	"sort"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
	"github.com/dd0wney/cluso-lessongraph/pkg/metrics"
)

// Engine computes layouts. It is safe for concurrent use.
type Engine struct {
	cfg     Config
	cache   *baseCache
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the registry layout metrics are recorded in
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.RankSpacing == 0 {
		cfg.RankSpacing = def.RankSpacing
	}
	if cfg.NodeSpacing == 0 {
		cfg.NodeSpacing = def.NodeSpacing
	}
	if cfg.BranchOffset == 0 {
		cfg.BranchOffset = def.BranchOffset
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = def.CacheSize
	}

	e := &Engine{
		cfg:    cfg,
		cache:  newBaseCache(cfg.CacheSize),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("layout"))
	return e
}

// Config returns the engine geometry
func (e *Engine) Config() Config {
	return e.cfg
}

// CacheStats reports base layout cache effectiveness
func (e *Engine) CacheStats() CacheStats {
	return e.cache.stats()
}

// ClearCache drops every cached base layout
func (e *Engine) ClearCache() {
	e.cache.clear()
}

// Compute lays out in. Malformed input is reported in Result.Issues and
// skipped; Compute never fails.
func (e *Engine) Compute(in Input) *Result {
	timer := logging.StartTimer(e.logger, "layout computed",
		logging.Count(len(in.Nodes)), logging.String("mode", in.Mode.String()))

	res := &Result{}

	nodes := make(map[string]*graph.ActivityNode, len(in.Nodes))
	order := make([]string, 0, len(in.Nodes))
	for i := range in.Nodes {
		n := &in.Nodes[i]
		if _, dup := nodes[n.ID]; dup {
			res.Issues = append(res.Issues, Issue{
				Kind: IssueDuplicateNode, NodeID: n.ID,
				Message: "duplicate node " + n.ID + " ignored",
			})
			continue
		}
		nodes[n.ID] = n
		order = append(order, n.ID)
	}
	ids := append([]string(nil), order...)
	sort.Strings(ids)

	edges := make([]*graph.Edge, 0, len(in.Edges))
	links := make([]link, 0, len(in.Edges))
	for i := range in.Edges {
		ed := &in.Edges[i]
		_, srcOK := nodes[ed.Source]
		_, dstOK := nodes[ed.Target]
		switch {
		case !srcOK || !dstOK:
			res.Issues = append(res.Issues, Issue{
				Kind: IssueDanglingEdge, EdgeID: ed.ID,
				Message: "edge " + ed.ID + " references a node outside the layout",
			})
		case ed.Source == ed.Target:
			res.Issues = append(res.Issues, Issue{
				Kind: IssueSelfLoop, EdgeID: ed.ID,
				Message: "edge " + ed.ID + " is a self-loop",
			})
		default:
			edges = append(edges, ed)
			links = append(links, link{source: ed.Source, target: ed.Target})
		}
	}
	sortLinks(links)
	res.Issues = append(res.Issues, unresolvedBranches(nodes, ids)...)

	key := signature(order, links)
	b, hit := e.cache.get(key)
	if !hit {
		b = buildBase(order, links)
		e.cache.put(key, b)
	}

	levels := InferBranchLevels(in.Nodes)
	for id, level := range in.Hints {
		if _, ok := nodes[id]; ok {
			levels[id] = level
		}
	}

	res.Nodes = e.place(b, nodes, levels, in.Mode)

	res.Edges = make([]StyledEdge, 0, len(edges))
	for _, ed := range edges {
		res.Edges = append(res.Edges, resolveStyle(nodes[ed.Source], ed))
	}
	sort.Slice(res.Edges, func(i, j int) bool { return res.Edges[i].ID < res.Edges[j].ID })
	sort.SliceStable(res.Issues, func(i, j int) bool {
		if res.Issues[i].Kind != res.Issues[j].Kind {
			return res.Issues[i].Kind < res.Issues[j].Kind
		}
		return res.Issues[i].EdgeID+res.Issues[i].NodeID < res.Issues[j].EdgeID+res.Issues[j].NodeID
	})

	for _, is := range res.Issues {
		e.logger.Warn("layout input skipped", logging.String("kind", string(is.Kind)),
			logging.NodeID(is.NodeID), logging.EdgeID(is.EdgeID), logging.Error(is.Err()))
	}
	dur := timer.End(logging.Bool("cache_hit", hit), logging.Int("issues", len(res.Issues)))
	if e.metrics != nil {
		e.metrics.RecordLayout(hit, dur, res.IssueKinds())
	}
	return res
}

// place turns ranks into coordinates. Each rank is split into its bands,
// and every band is centered on its own horizontal line.
func (e *Engine) place(b *base, nodes map[string]*graph.ActivityNode, levels map[string]BranchLevel, mode Mode) []PositionedNode {
	out := make([]PositionedNode, 0, len(nodes))

	for r, members := range b.ranks {
		x := e.cfg.OriginX + float64(r)*e.cfg.RankSpacing

		bands := map[BranchLevel][]string{}
		for _, id := range members {
			level := levels[id]
			if level != LevelRemedial && level != LevelAdvanced {
				level = LevelMain
			}
			bands[level] = append(bands[level], id)
		}

		for _, level := range []BranchLevel{LevelAdvanced, LevelMain, LevelRemedial} {
			band := bands[level]
			center := float64(len(band)-1) / 2
			for i, id := range band {
				pn := PositionedNode{
					ID:    id,
					X:     x,
					Y:     e.cfg.OriginY + e.bandOffset(level) + (float64(i)-center)*e.cfg.NodeSpacing,
					Rank:  r,
					Level: level,
				}
				if pos, ok := stored(nodes[id], mode); ok {
					pn.X, pn.Y, pn.Preserved = pos.X, pos.Y, true
				}
				out = append(out, pn)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// stored returns the position mode lets n keep
func stored(n *graph.ActivityNode, mode Mode) (graph.Position, bool) {
	if n.Position == nil {
		return graph.Position{}, false
	}
	switch mode {
	case Incremental:
		return *n.Position, true
	case Full:
		return *n.Position, n.Pinned
	default:
		return graph.Position{}, false
	}
}
