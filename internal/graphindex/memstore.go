package graphindex

import (
	"context"
	"sync"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	order    []int
	steps    map[int]workflow.Step
	out      map[int][]workflow.Edge // resolved edges keyed by source id
	incoming map[int]bool
	dangling []workflow.Edge
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	m := &MemStore{}
	m.reset()
	return m
}

func (m *MemStore) reset() {
	m.order = nil
	m.steps = make(map[int]workflow.Step)
	m.out = make(map[int][]workflow.Edge)
	m.incoming = make(map[int]bool)
	m.dangling = nil
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Load replaces the store contents with w.
func (m *MemStore) Load(_ context.Context, w *workflow.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()

	steps := dedupe(w)
	for _, s := range steps {
		m.order = append(m.order, s.ID)
		m.steps[s.ID] = s
	}
	for _, s := range steps {
		for _, e := range s.Edges() {
			if _, ok := m.steps[e.To]; !ok {
				m.dangling = append(m.dangling, e)
				continue
			}
			m.out[e.From] = append(m.out[e.From], e)
			m.incoming[e.To] = true
		}
	}
	return nil
}

// Dangling returns edges whose target names no step.
func (m *MemStore) Dangling(_ context.Context) ([]workflow.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]workflow.Edge(nil), m.dangling...)
	sortEdges(out)
	return out, nil
}

// Unreachable returns ids of steps that no root reaches.
func (m *MemStore) Unreachable(_ context.Context) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return unreachable(m.order, m.incoming, func(id int) ([]int, error) {
		var ids []int
		for _, e := range m.out[id] {
			ids = append(ids, e.To)
		}
		return ids, nil
	})
}

// Successors returns the resolved outgoing edges of step id.
func (m *MemStore) Successors(_ context.Context, id int) ([]workflow.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]workflow.Edge(nil), m.out[id]...)
	sortEdges(out)
	return out, nil
}

// Stats returns node and edge counts.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &Stats{Steps: len(m.order), Dangling: len(m.dangling)}
	for _, s := range m.steps {
		if s.Type == workflow.StepDecision {
			st.Decisions++
		}
		if s.Approval {
			st.Approvals++
		}
	}
	for _, edges := range m.out {
		st.Edges += len(edges)
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
