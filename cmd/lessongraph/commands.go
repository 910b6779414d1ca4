package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-lessongraph/pkg/graph"
	"github.com/dd0wney/cluso-lessongraph/pkg/recommend"
	"github.com/dd0wney/cluso-lessongraph/pkg/reducer"
)

func (cli *CLI) executeCommand(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "help":
		cli.showHelp()

	case "paths", "ls":
		cli.listPaths()

	case "open":
		if len(args) < 1 {
			cli.usage("open <owner-id> [owner name]")
			return
		}
		cli.open(args[0], strings.Join(args[1:], " "))

	case "show", "s":
		cli.show()

	case "add-node", "an":
		if len(args) < 2 {
			cli.usage("add-node <type> <label> [id=<id>]")
			return
		}
		cli.addNode(args)

	case "connect", "c":
		if len(args) < 2 {
			cli.usage("connect <source> <target> [<metric> <lt|lte|gt|gte|eq> <threshold>]")
			return
		}
		cli.connect(args)

	case "move", "mv":
		if len(args) < 3 {
			cli.usage("move <node-id> <x> <y>")
			return
		}
		cli.move(args[0], args[1], args[2])

	case "rename":
		if len(args) < 2 {
			cli.usage("rename <node-id> <label>")
			return
		}
		cli.rename(args[0], strings.Join(args[1:], " "))

	case "delete-node", "dn":
		if len(args) < 1 {
			cli.usage("delete-node <node-id>")
			return
		}
		cli.report(cli.withCurrent(func(owner string) error { return cli.ws.DeleteNode(owner, args[0]) }), "Node deleted")

	case "delete-edge", "de":
		if len(args) < 1 {
			cli.usage("delete-edge <edge-id>")
			return
		}
		cli.report(cli.withCurrent(func(owner string) error { return cli.ws.DeleteEdge(owner, args[0]) }), "Edge deleted")

	case "undo", "u":
		cli.replay("undo", cli.ws.Undo)

	case "redo", "r":
		cli.replay("redo", cli.ws.Redo)

	case "layout":
		cli.layout(false)

	case "reset-layout":
		cli.layout(true)

	case "project", "p":
		cli.project()

	case "expand":
		if len(args) < 1 {
			cli.usage("expand <preview|instruction|practice|assessment>")
			return
		}
		cli.report(cli.ws.Projector().Expand(graph.Phase(args[0])), "Expanded "+args[0])

	case "collapse":
		cli.report(cli.ws.Projector().Collapse(), "Collapsed to overview")

	case "generate", "gen":
		if len(args) < 1 {
			cli.usage("generate <subject> [skill=score ...]")
			return
		}
		cli.generate(args)

	case "delete-path":
		if len(args) < 1 {
			cli.usage("delete-path <owner-id>")
			return
		}
		cli.report(cli.ws.DeletePath(cli.ctx, args[0]), "Path deleted")

	default:
		fmt.Fprintf(cli.out, "❌ Unknown command: %s (type 'help' for available commands)\n", command)
	}
}

func (cli *CLI) showHelp() {
	help := `
📖 Available Commands:

📂 Paths:
  paths                           List paths in memory
  open <owner> [name]             Open or create an owner's path
  show                            Show the current path
  delete-path <owner>             Delete a path and its stored copy

🛠️  Editing (current path):
  add-node <type> <label> [id=x]  Add an activity node
  connect <src> <tgt> [m op v]    Connect two nodes, optionally on a condition
  move <id> <x> <y>               Move and pin a node
  rename <id> <label>             Change a node label
  delete-node <id>                Delete a node and its edges
  delete-edge <id>                Delete an edge
  undo / redo                     Step through history

📐 Layout & views:
  layout                          Place unplaced nodes
  reset-layout                    Re-place every unpinned node
  project                         Show the current projection
  expand <phase>                  Zoom into one phase
  collapse                        Return to the phase overview

🤖 Generation:
  generate <subject> [k=v ...]    Generate a starter path from skill scores

  help                            Show this help
  exit/quit                       Exit the CLI

💡 Examples:
  open s1 Ada Lovelace
  add-node video Intro id=intro
  add-node quiz Check id=quiz
  connect intro quiz
  generate fractions addition=45 equivalence=80
`
	fmt.Fprintln(cli.out, help)
}

func (cli *CLI) usage(s string) {
	fmt.Fprintf(cli.out, "Usage: %s\n", s)
}

// report prints err, or ok when err is nil
func (cli *CLI) report(err error, ok string) {
	if err != nil {
		fmt.Fprintf(cli.out, "❌ %v\n", err)
		var gerr *graph.Error
		if errors.As(err, &gerr) {
			for _, v := range gerr.Violations {
				fmt.Fprintf(cli.out, "   • %s\n", v.Message)
			}
		}
		return
	}
	fmt.Fprintf(cli.out, "✅ %s\n", ok)
}

var errNoCurrent = errors.New("no path open (use 'open <owner>')")

// withCurrent runs fn against the current owner
func (cli *CLI) withCurrent(fn func(owner string) error) error {
	p := cli.ws.Current()
	if p == nil {
		return errNoCurrent
	}
	return fn(p.OwnerID)
}

func (cli *CLI) listPaths() {
	state := cli.ws.State()
	owners := state.Owners()
	if len(owners) == 0 {
		fmt.Fprintln(cli.out, "No paths loaded")
		return
	}
	fmt.Fprintln(cli.out, "📚 Paths:")
	for _, owner := range owners {
		p := state.Path(owner)
		marker := " "
		if owner == state.CurrentOwner {
			marker = "*"
		}
		fmt.Fprintf(cli.out, " %s %-20s %-24s %3d nodes %3d edges  %d/%d done\n",
			marker, p.OwnerID, p.OwnerName, len(p.Nodes), len(p.Edges),
			p.Progress.CompletedNodeCount, p.Progress.TotalNodeCount)
	}
}

func (cli *CLI) open(owner, name string) {
	p, err := cli.ws.Open(cli.ctx, owner, name)
	if err != nil {
		cli.report(err, "")
		return
	}
	cli.report(nil, fmt.Sprintf("Opened %s (%d nodes, %d edges)", p.OwnerID, len(p.Nodes), len(p.Edges)))
}

func (cli *CLI) show() {
	p := cli.ws.Current()
	if p == nil {
		cli.report(errNoCurrent, "")
		return
	}

	fmt.Fprintf(cli.out, "📄 %s (%s)\n", p.OwnerID, p.OwnerName)
	fmt.Fprintln(cli.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, n := range p.Nodes {
		pos := "unplaced"
		if n.Position != nil {
			pos = fmt.Sprintf("(%.0f, %.0f)", n.Position.X, n.Position.Y)
			if n.Pinned {
				pos += " pinned"
			}
		}
		fmt.Fprintf(cli.out, "  [%s] %-12s %-28q %-12s %s\n", n.ID, n.Type, n.Data.Label, n.EffectivePhase(), pos)
	}
	for _, e := range p.Edges {
		label := e.Label()
		if e.Data != nil && e.Data.Condition != nil {
			c := e.Data.Condition
			label = fmt.Sprintf("%s %s %g %s", c.Metric, c.Comparator, c.Threshold, label)
		}
		fmt.Fprintf(cli.out, "  %s → %s  [%s] %s\n", e.Source, e.Target, e.ID, strings.TrimSpace(label))
	}
	if r := p.Recommendation; r != nil {
		fmt.Fprintf(cli.out, "\n🤖 %s\n", r.Summary)
		if len(r.FocusAreas) > 0 {
			fmt.Fprintf(cli.out, "   Focus: %s\n", strings.Join(r.FocusAreas, ", "))
		}
	}
	fmt.Fprintln(cli.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func (cli *CLI) addNode(args []string) {
	node := graph.ActivityNode{Type: graph.NodeType(args[0])}
	var label []string
	for _, a := range args[1:] {
		if id, ok := strings.CutPrefix(a, "id="); ok {
			node.ID = id
			continue
		}
		label = append(label, a)
	}
	node.Data.Label = strings.Join(label, " ")

	var id string
	err := cli.withCurrent(func(owner string) error {
		var err error
		id, err = cli.ws.AddNode(owner, node)
		return err
	})
	cli.report(err, "Node "+id+" added")
}

func (cli *CLI) connect(args []string) {
	edge := graph.Edge{Source: args[0], Target: args[1]}
	if len(args) >= 5 {
		threshold, err := strconv.ParseFloat(args[4], 64)
		if err != nil {
			cli.report(fmt.Errorf("invalid threshold %q", args[4]), "")
			return
		}
		edge.Type = graph.EdgeTypeConditional
		edge.Data = &graph.EdgeData{Condition: &graph.Condition{
			Metric:     args[2],
			Comparator: graph.Comparator(args[3]),
			Threshold:  threshold,
		}}
	}

	var id string
	err := cli.withCurrent(func(owner string) error {
		var err error
		id, err = cli.ws.AddEdge(owner, edge)
		return err
	})
	cli.report(err, "Edge "+id+" added")
}

func (cli *CLI) move(id, xs, ys string) {
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		cli.report(errors.New("coordinates must be numbers"), "")
		return
	}
	cli.report(cli.withCurrent(func(owner string) error {
		return cli.ws.MoveNode(owner, id, graph.Position{X: x, Y: y})
	}), "Node moved")
}

func (cli *CLI) rename(id, label string) {
	cli.report(cli.withCurrent(func(owner string) error {
		return cli.ws.UpdateNode(owner, id, reducer.NodeChanges{Label: &label})
	}), "Node renamed")
}

func (cli *CLI) replay(op string, step func() (bool, error)) {
	ok, err := step()
	if err != nil {
		cli.report(err, "")
		return
	}
	if !ok {
		fmt.Fprintf(cli.out, "Nothing to %s\n", op)
		return
	}
	cli.report(nil, strings.ToUpper(op[:1])+op[1:]+" applied")
}

func (cli *CLI) layout(reset bool) {
	p := cli.ws.Current()
	if p == nil {
		cli.report(errNoCurrent, "")
		return
	}
	compute := cli.ws.Layout
	if reset {
		compute = cli.ws.ResetLayout
	}
	res, err := compute(p.OwnerID)
	if err != nil {
		cli.report(err, "")
		return
	}

	fmt.Fprintln(cli.out, "📐 Layout:")
	for _, n := range res.Nodes {
		kept := ""
		if n.Preserved {
			kept = " (kept)"
		}
		fmt.Fprintf(cli.out, "  %-16s rank %-2d (%.0f, %.0f)%s\n", n.ID, n.Rank, n.X, n.Y, kept)
	}
	for _, is := range res.Issues {
		fmt.Fprintf(cli.out, "  ⚠️  %s: %s\n", is.Kind, is.Message)
	}
}

func (cli *CLI) project() {
	p := cli.ws.Current()
	if p == nil {
		cli.report(errNoCurrent, "")
		return
	}
	proj, err := cli.ws.Project(p.OwnerID)
	if err != nil {
		cli.report(err, "")
		return
	}

	if proj.Overview != nil {
		fmt.Fprintln(cli.out, "🔭 Phase overview:")
		for _, ph := range proj.Overview.Phases {
			fmt.Fprintf(cli.out, "  %-12s %2d activities\n", ph.Label, ph.Count)
		}
		return
	}
	fmt.Fprintf(cli.out, "🔎 %s detail: %d nodes, %d edges\n", proj.Phase, len(proj.Detail.Nodes), len(proj.Detail.Edges))
	for _, n := range proj.Detail.Nodes {
		fmt.Fprintf(cli.out, "  %-16s (%.0f, %.0f)\n", n.ID, n.X, n.Y)
	}
}

func (cli *CLI) generate(args []string) {
	rec := recommend.Record{Subject: args[0], Scores: map[string]float64{}}
	for _, kv := range args[1:] {
		skill, v, ok := strings.Cut(kv, "=")
		score, err := strconv.ParseFloat(v, 64)
		if !ok || err != nil {
			cli.report(fmt.Errorf("invalid score %q (want skill=score)", kv), "")
			return
		}
		rec.Scores[skill] = score
	}

	err := cli.withCurrent(func(owner string) error {
		rec.OwnerID = owner
		if err := rec.Validate(); err != nil {
			return err
		}
		_, err := cli.ws.Generate(cli.ctx, owner, rec)
		return err
	})
	if err != nil {
		cli.report(err, "")
		return
	}
	p := cli.ws.Current()
	cli.report(nil, fmt.Sprintf("Generated %d nodes, %d edges", len(p.Nodes), len(p.Edges)))
	if r := p.Recommendation; r != nil {
		fmt.Fprintf(cli.out, "🤖 %s (%s, ~%d min)\n", r.Summary, r.Difficulty, r.EstimatedMinutes)
	}
}
