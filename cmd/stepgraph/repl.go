package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dusk-indust/stepgraph/internal/export"
	"github.com/dusk-indust/stepgraph/internal/graphindex"
	"github.com/dusk-indust/stepgraph/internal/session"
)

type replOptions struct {
	ExportDir string
	Backend   string
}

const replHelp = `Type a task to add steps to the workflow. Commands:
  :undo              undo the last change
  :redo              redo the last undone change
  :new               start an empty workflow
  :at <id> <task>    add steps attached to step <id>
  :diagram           print the Mermaid diagram
  :export [json|text] print the workflow
  :save [dir]        write workflow.json, workflow.txt and workflow.mmd
  :check             report dangling edges and unreachable steps
  :help              show this help
  :quit              exit`

// runREPL reads tasks and commands line by line from in until EOF, :quit or
// ctx is cancelled.
func runREPL(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer, opts replOptions) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "stepgraph: type a task, or :help")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			outcome, err := sess.Submit(ctx, line)
			printOutcome(out, outcome, err)
			continue
		}

		quit, err := runCommand(ctx, sess, out, line, opts)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// runCommand executes one ":" command. It reports true when the REPL
// should exit.
func runCommand(ctx context.Context, sess *session.Session, out io.Writer, line string, opts replOptions) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true, nil

	case ":help", ":h":
		fmt.Fprintln(out, replHelp)

	case ":undo":
		ok, err := sess.Undo(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			fmt.Fprintln(out, "nothing to undo")
			return false, nil
		}
		fmt.Fprintf(out, "undone (%d step(s))\n", sess.State().Steps)

	case ":redo":
		ok, err := sess.Redo(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			fmt.Fprintln(out, "nothing to redo")
			return false, nil
		}
		fmt.Fprintf(out, "redone (%d step(s))\n", sess.State().Steps)

	case ":new":
		if err := sess.StartNewWorkflow(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "started a new workflow")

	case ":at":
		if len(fields) < 3 {
			return false, fmt.Errorf("usage: :at <id> <task>")
		}
		anchor, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid step id %q", fields[1])
		}
		task := strings.Join(fields[2:], " ")
		outcome, err := sess.SubmitAnchored(ctx, task, anchor)
		printOutcome(out, outcome, err)

	case ":diagram":
		fmt.Fprintln(out, sess.Diagram())

	case ":export":
		format := "text"
		if len(fields) > 1 {
			format = strings.ToLower(fields[1])
		}
		switch format {
		case "text":
			fmt.Fprintln(out, sess.ExportText())
		case "json":
			data, err := sess.ExportJSON()
			if err != nil {
				return false, err
			}
			fmt.Fprintln(out, string(data))
		default:
			return false, fmt.Errorf("unsupported format %q (want json or text)", format)
		}

	case ":save":
		dir := opts.ExportDir
		if len(fields) > 1 {
			dir = fields[1]
		}
		paths, err := export.WriteBundle(ctx, dir, sess.Workflow())
		if err != nil {
			return false, err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "  wrote %s\n", p)
		}

	case ":check":
		store, err := graphindex.Open(graphindex.Backend(opts.Backend))
		if err != nil {
			return false, err
		}
		defer store.Close()
		report, err := graphindex.Analyze(ctx, store, sess.Workflow())
		if err != nil {
			return false, err
		}
		fmt.Fprint(out, graphindex.FormatReport(report))

	default:
		return false, fmt.Errorf("unknown command %s (try :help)", fields[0])
	}
	return false, nil
}

// printOutcome reports the result of a submission.
func printOutcome(out io.Writer, o session.Outcome, err error) {
	switch {
	case errors.Is(err, session.ErrRender):
		fmt.Fprintf(out, "added %d step(s), but the diagram could not be rendered: %v\n", len(o.Added), err)
	case err != nil:
		fmt.Fprintf(out, "request failed: %v\n", err)
	case o.Status == session.StatusApplied:
		fmt.Fprintf(out, "added %d step(s)\n", len(o.Added))
		for _, e := range o.Dangling {
			fmt.Fprintf(out, "  warning: step %d points at missing step %d\n", e.From, e.To)
		}
	case o.Status == session.StatusEmpty:
		fmt.Fprintln(out, "the planner returned no usable steps")
	case o.Status == session.StatusStale:
		fmt.Fprintln(out, "superseded by a newer request")
	}
}
