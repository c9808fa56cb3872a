// Package graphindex mirrors a workflow into a graph store so it can be
// queried for structural problems: edges into nowhere, steps no path
// reaches, fan-out per step.
package graphindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// Store is the interface for the workflow graph backend.
// Implementations: KuzuStore (cgo builds), MemStore (always available).
type Store interface {
	io.Closer

	// InitSchema is called once before the first Load.
	InitSchema(ctx context.Context) error

	// Load replaces the store contents with w. When w repeats a step id
	// the first occurrence wins.
	Load(ctx context.Context, w *workflow.Workflow) error

	// Dangling returns edges whose target names no step.
	Dangling(ctx context.Context) ([]workflow.Edge, error)

	// Unreachable returns ids of steps that no root reaches. A root is a
	// step with no incoming edge; if every step has one, the first step is
	// the root.
	Unreachable(ctx context.Context) ([]int, error)

	// Successors returns the resolved outgoing edges of a step.
	Successors(ctx context.Context, id int) ([]workflow.Edge, error)

	Stats(ctx context.Context) (*Stats, error)
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendKuzu   Backend = "kuzu"
)

// ErrUnknownBackend is returned by Open for unrecognised backend names.
var ErrUnknownBackend = errors.New("graphindex: unknown backend")

// Open returns an empty store for the named backend. An empty name selects
// the memory backend.
func Open(backend Backend) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemStore(), nil
	case BackendKuzu:
		return openKuzu()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Stats summarizes a loaded workflow.
type Stats struct {
	Steps     int `json:"steps"`
	Decisions int `json:"decisions"`
	Approvals int `json:"approvals"`
	Edges     int `json:"edges"`
	Dangling  int `json:"dangling"`
}

// unreachable walks from the roots of the graph described by order (step
// ids in display order) and incoming (ids with at least one resolved
// incoming edge), following succ. It returns the ids never visited, in
// display order.
func unreachable(order []int, incoming map[int]bool, succ func(id int) ([]int, error)) ([]int, error) {
	if len(order) == 0 {
		return nil, nil
	}

	var queue []int
	for _, id := range order {
		if !incoming[id] {
			queue = append(queue, id)
		}
	}
	if len(queue) == 0 {
		queue = append(queue, order[0])
	}

	visited := make(map[int]bool, len(order))
	for _, id := range queue {
		visited[id] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next, err := succ(cur)
		if err != nil {
			return nil, err
		}
		for _, n := range next {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}

	var out []int
	for _, id := range order {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// labelRank orders edges of one step: next, then yes, then no.
func labelRank(label string) int {
	switch label {
	case "":
		return 0
	case workflow.LabelYes:
		return 1
	default:
		return 2
	}
}

// sortEdges orders edges by source id, then label.
func sortEdges(edges []workflow.Edge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return labelRank(edges[i].Label) < labelRank(edges[j].Label)
	})
}

// dedupe returns the steps of w with repeated ids removed, first wins.
func dedupe(w *workflow.Workflow) []workflow.Step {
	if w == nil {
		return nil
	}
	seen := make(map[int]bool, len(w.Steps))
	out := make([]workflow.Step, 0, len(w.Steps))
	for _, s := range w.Steps {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}
