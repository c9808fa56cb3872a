package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dusk-indust/stepgraph/internal/export"
	"github.com/dusk-indust/stepgraph/internal/graphindex"
	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// runExport re-exports a saved workflow.json as a full bundle.
func runExport(ctx context.Context, args []string, defaultDir string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stepgraph export <workflow.json> [dir]")
	}
	w, err := readWorkflow(args[0])
	if err != nil {
		return err
	}

	dir := defaultDir
	if len(args) > 1 {
		dir = args[1]
	}
	paths, err := export.WriteBundle(ctx, dir, w)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	for _, p := range paths {
		fmt.Printf("  wrote %s\n", p)
	}
	return nil
}

// runCheck analyzes a saved workflow.json and fails if it has problems.
func runCheck(ctx context.Context, args []string, backend string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stepgraph check <workflow.json>")
	}
	w, err := readWorkflow(args[0])
	if err != nil {
		return err
	}

	store, err := graphindex.Open(graphindex.Backend(backend))
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := graphindex.Analyze(ctx, store, w)
	if err != nil {
		return err
	}
	fmt.Print(graphindex.FormatReport(report))
	if !report.Clean() {
		return fmt.Errorf("%s has structural problems", args[0])
	}
	return nil
}

func readWorkflow(path string) (*workflow.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	return export.ParseJSON(data)
}
