package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-lessongraph/pkg/editor"
)

func newTestCLI(script string) (*CLI, *bytes.Buffer) {
	var out bytes.Buffer
	return &CLI{
		ws:      editor.New(),
		scanner: bufio.NewScanner(strings.NewReader(script)),
		out:     &out,
		ctx:     context.Background(),
	}, &out
}

func TestCLI_Session(t *testing.T) {
	cli, out := newTestCLI(strings.Join([]string{
		"open s1 Ada Lovelace",
		"add-node content Intro id=a",
		"add-node quiz Check id=b",
		"connect a b score gte 70",
		"show",
		"undo",
		"show",
		"exit",
		"add-node content never id=z",
	}, "\n"))
	cli.run()

	got := out.String()
	for _, want := range []string{
		"Opened s1 (0 nodes, 0 edges)",
		"Node a added",
		"Node b added",
		"a → b",
		"score gte 70",
		"Undo applied",
		"Goodbye",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if p := cli.ws.Path("s1"); len(p.Edges) != 0 || len(p.Nodes) != 2 {
		t.Errorf("after undo: %d nodes %d edges, want 2 and 0", len(p.Nodes), len(p.Edges))
	}
	if strings.Contains(got, "Node z added") {
		t.Error("commands after exit were executed")
	}
}

func TestCLI_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown command", "frobnicate", "Unknown command: frobnicate"},
		{"no path open", "add-node content Intro", "no path open"},
		{"missing args", "move a", "Usage: move"},
		{"bad coordinates", "move a x y", "coordinates must be numbers"},
		{"bad score", "generate maths algebra", "invalid score"},
		{"collapse from overview", "collapse", "❌"},
		{"nothing to undo", "undo", "Nothing to undo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out := newTestCLI("")
			cli.executeCommand(tt.input)
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestCLI_ValidationViolationsListed(t *testing.T) {
	cli, out := newTestCLI("")
	cli.executeCommand("open s1")
	cli.executeCommand("add-node content Intro id=a")
	cli.executeCommand("connect a ghost")

	if !strings.Contains(out.String(), "•") {
		t.Errorf("expected violation bullets in %q", out.String())
	}
}

func TestCLI_GenerateAndLayout(t *testing.T) {
	cli, out := newTestCLI("")
	cli.executeCommand("open s1")
	cli.executeCommand("generate fractions addition=45 equivalence=80")
	cli.executeCommand("layout")
	cli.executeCommand("expand practice")
	cli.executeCommand("project")

	got := out.String()
	for _, want := range []string{"Generated 10 nodes, 12 edges", "📐 Layout:", "Expanded practice", "practice detail"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}
