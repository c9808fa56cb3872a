package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/stepgraph/internal/config"
	"github.com/dusk-indust/stepgraph/internal/history"
	"github.com/dusk-indust/stepgraph/internal/logging"
	"github.com/dusk-indust/stepgraph/internal/planner"
	"github.com/dusk-indust/stepgraph/internal/render"
	"github.com/dusk-indust/stepgraph/internal/session"
	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// CLI flags parsed from command line. Empty values fall back to
// stepgraph.yml and then to built-in defaults.
type cliFlags struct {
	Dir        string
	Planner    string
	Timeout    time.Duration
	Diagram    string
	Unresolved string
	Backend    string
	LogLevel   string
	AppendOnly bool
	ServeMCP   bool
	ServeHTTP  bool
	MCPAddr    string
	Force      bool
	Version    bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("stepgraph", flag.ContinueOnError)
	fs.StringVar(&flags.Dir, "dir", ".", "directory holding stepgraph.yml")
	fs.StringVar(&flags.Planner, "planner", "", "planner endpoint URL")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "planner request timeout")
	fs.StringVar(&flags.Diagram, "diagram", "", "file the Mermaid diagram is rendered to")
	fs.StringVar(&flags.Unresolved, "unresolved", "", "handling of references to missing steps: keep or drop")
	fs.StringVar(&flags.Backend, "analysis-backend", "", "graph index for :check and analyze_workflow: memory or kuzu")
	fs.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&flags.AppendOnly, "append-only", false, "do not send existing steps to the planner")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.BoolVar(&flags.ServeHTTP, "serve-mcp-http", false, "run as MCP server over streamable HTTP")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "listen address for --serve-mcp-http")
	fs.BoolVar(&flags.Force, "force", false, "overwrite existing files (init)")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger := logging.NewStderr(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch fs.Arg(0) {
	case "init":
		return runInit(flags.Dir, flags.Force, os.Stdout)
	case "export":
		return runExport(ctx, fs.Args()[1:], cfg.Export.Dir)
	case "check":
		return runCheck(ctx, fs.Args()[1:], cfg.Analysis.Backend)
	case "":
	default:
		return fmt.Errorf("unknown command %q (want init, export or check)", fs.Arg(0))
	}

	sess := newSession(cfg, logger)
	defer sess.Close()

	switch {
	case flags.ServeMCP:
		return runServeStdio(ctx, sess, cfg, logger)
	case flags.ServeHTTP:
		return runServeHTTP(ctx, sess, cfg, logger)
	}

	go printEvents(sess.Events())
	err = runREPL(ctx, sess, os.Stdin, os.Stdout, replOptions{
		ExportDir: cfg.Export.Dir,
		Backend:   cfg.Analysis.Backend,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadConfig reads stepgraph.yml from flags.Dir and applies flag overrides
// on top of it before filling defaults.
func loadConfig(flags cliFlags) (config.Config, error) {
	fileCfg, err := config.Load(flags.Dir)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg := *fileCfg

	if flags.Planner != "" {
		cfg.Planner.Endpoint = flags.Planner
	}
	if flags.Timeout > 0 {
		cfg.Planner.Timeout = flags.Timeout
	}
	if flags.AppendOnly {
		cfg.Planner.AppendOnly = true
	}
	if flags.Diagram != "" {
		cfg.Diagram.Path = flags.Diagram
	}
	if flags.Unresolved != "" {
		cfg.Merge.Unresolved = flags.Unresolved
	}
	if flags.Backend != "" {
		cfg.Analysis.Backend = flags.Backend
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.MCPAddr != "" {
		cfg.MCP.Addr = flags.MCPAddr
	}
	cfg = cfg.WithDefaults()
	if _, err := workflow.ParseUnresolvedPolicy(cfg.Merge.Unresolved); err != nil {
		return config.Config{}, fmt.Errorf("merge.unresolved: %w", err)
	}
	return cfg, nil
}

// newSession wires the planner client, history, merger and renderer
// described by cfg into a Session.
func newSession(cfg config.Config, logger *zap.Logger) *session.Session {
	client := planner.NewHTTPClient(cfg.Planner.Endpoint,
		planner.WithTimeout(cfg.Planner.Timeout),
		planner.WithAPIKey(cfg.Planner.APIKey),
		planner.WithAppendOnly(cfg.Planner.AppendOnly),
		planner.WithLogger(logger.Named("planner")),
	)

	return session.New(client,
		session.WithHistory(history.New(history.WithLimit(cfg.History.Limit))),
		session.WithMerger(workflow.NewMerger(
			workflow.WithUnresolvedPolicy(workflow.UnresolvedPolicy(cfg.Merge.Unresolved)),
		)),
		session.WithRenderer(render.NewFileRenderer(cfg.Diagram.Path)),
		session.WithTimeout(cfg.Planner.Timeout),
		session.WithLogger(logger.Named("session")),
	)
}

// printEvents writes request status lines to stderr until the stream closes.
func printEvents(events <-chan session.Event) {
	for ev := range events {
		if ev.Status == session.StatusPending {
			fmt.Fprintln(os.Stderr, session.FormatEvent(ev))
		}
	}
}
