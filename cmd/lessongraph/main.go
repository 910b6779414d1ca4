package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dd0wney/cluso-lessongraph/pkg/config"
	"github.com/dd0wney/cluso-lessongraph/pkg/editor"
	"github.com/dd0wney/cluso-lessongraph/pkg/logging"
)

// CLI is an interactive authoring session over one workspace
type CLI struct {
	ws      *editor.Workspace
	scanner *bufio.Scanner
	out     io.Writer
	ctx     context.Context
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	backend := flag.String("backend", "", "Storage backend override (memory, file, sqlite, postgres)")
	owner := flag.String("owner", "", "Owner to open on start")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
		if err := cfg.Validate(); err != nil {
			fmt.Printf("❌ Invalid configuration: %v\n", err)
			os.Exit(1)
		}
	}

	printBanner()

	// Interactive output goes to stdout; logs stay on stderr at warn and up
	logger := logging.NewJSONLogger(os.Stderr, max(cfg.Level(), logging.WarnLevel))

	ctx := context.Background()
	fmt.Printf("📂 Opening %s storage...\n", cfg.Storage.Backend)
	rt, err := editor.Build(ctx, cfg, logger, nil)
	if err != nil {
		fmt.Printf("❌ Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close(ctx)

	n := rt.Workspace.Hydrate(ctx)
	fmt.Printf("✅ Loaded %d path(s)\n\n", n)

	cli := &CLI{
		ws:      rt.Workspace,
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		ctx:     ctx,
	}
	if *owner != "" {
		cli.executeCommand("open " + *owner)
	}

	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()

	cli.run()
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════╗
║                                               ║
║        Lesson Graph Interactive CLI v1.0      ║
║                                               ║
╚═══════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func (cli *CLI) run() {
	for {
		fmt.Fprint(cli.out, cli.prompt())

		if !cli.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(cli.scanner.Text())
		if input == "" {
			continue
		}

		if input == "exit" || input == "quit" {
			fmt.Fprintln(cli.out, "👋 Goodbye!")
			break
		}

		cli.executeCommand(input)
		fmt.Fprintln(cli.out)
	}
}

func (cli *CLI) prompt() string {
	if p := cli.ws.Current(); p != nil {
		return "lessongraph(" + p.OwnerID + ")> "
	}
	return "lessongraph> "
}
