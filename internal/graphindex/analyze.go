package graphindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// Report is the result of Analyze.
type Report struct {
	Stats       Stats              `json:"stats"`
	Dangling    []workflow.Edge    `json:"dangling"`
	Unreachable []int              `json:"unreachable"`
	Problems    []workflow.Problem `json:"problems"`
}

// Clean reports whether the analysis found nothing to flag.
func (r *Report) Clean() bool {
	return len(r.Dangling) == 0 && len(r.Unreachable) == 0 && len(r.Problems) == 0
}

// Analyze loads w into store and collects its structural findings.
func Analyze(ctx context.Context, store Store, w *workflow.Workflow) (*Report, error) {
	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("graphindex: init schema: %w", err)
	}
	if err := store.Load(ctx, w); err != nil {
		return nil, fmt.Errorf("graphindex: load: %w", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("graphindex: stats: %w", err)
	}
	dangling, err := store.Dangling(ctx)
	if err != nil {
		return nil, fmt.Errorf("graphindex: dangling: %w", err)
	}
	unreachable, err := store.Unreachable(ctx)
	if err != nil {
		return nil, fmt.Errorf("graphindex: unreachable: %w", err)
	}

	var problems []workflow.Problem
	if w != nil {
		problems = w.Validate()
	}
	return &Report{
		Stats:       *stats,
		Dangling:    dangling,
		Unreachable: unreachable,
		Problems:    problems,
	}, nil
}

// FormatReport renders r as indented human-readable lines.
func FormatReport(r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d step(s), %d decision(s), %d approval(s), %d edge(s)\n",
		r.Stats.Steps, r.Stats.Decisions, r.Stats.Approvals, r.Stats.Edges)
	if r.Clean() {
		sb.WriteString("  no problems found\n")
		return sb.String()
	}
	for _, e := range r.Dangling {
		if e.Label != "" {
			fmt.Fprintf(&sb, "  dangling: step %d -- %s --> %d\n", e.From, e.Label, e.To)
		} else {
			fmt.Fprintf(&sb, "  dangling: step %d --> %d\n", e.From, e.To)
		}
	}
	for _, id := range r.Unreachable {
		fmt.Fprintf(&sb, "  unreachable: step %d\n", id)
	}
	for _, p := range r.Problems {
		if p.Kind == workflow.ProblemDanglingEdge {
			continue
		}
		fmt.Fprintf(&sb, "  %s: %s\n", p.Kind, p.Message)
	}
	return sb.String()
}
