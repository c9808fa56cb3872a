package workflow

import (
	"errors"
	"fmt"
)

// UnresolvedPolicy decides what happens to an edge whose foreign target is
// not part of the batch and, read as a local id, names no existing step.
type UnresolvedPolicy string

const (
	// KeepUnresolved stores the raw value as a local id even if it dangles.
	KeepUnresolved UnresolvedPolicy = "keep"

	// DropUnresolved nulls edges whose fallback target does not exist.
	DropUnresolved UnresolvedPolicy = "drop"
)

// ErrUnknownPolicy is returned by ParseUnresolvedPolicy for values other than
// keep and drop.
var ErrUnknownPolicy = errors.New("workflow: unknown unresolved policy")

// ParseUnresolvedPolicy maps a config value to a policy. The empty string
// selects KeepUnresolved.
func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch p := UnresolvedPolicy(s); p {
	case "":
		return KeepUnresolved, nil
	case KeepUnresolved, DropUnresolved:
		return p, nil
	default:
		return "", fmt.Errorf("%w %q (want %s or %s)", ErrUnknownPolicy, s, KeepUnresolved, DropUnresolved)
	}
}

// MergeResult describes what a merge appended.
type MergeResult struct {
	// Added lists the local ids allocated, in batch order.
	Added []int

	// Dangling lists edges of new steps whose target names no step.
	// Always empty under DropUnresolved.
	Dangling []Edge
}

// Merger appends suggestion batches to a workflow. Existing steps are never
// removed, reordered or edited, and no foreign id is ever stored as a step id.
type Merger struct {
	policy UnresolvedPolicy
}

// MergeOption configures a Merger.
type MergeOption func(*Merger)

// WithUnresolvedPolicy sets how pass-through references that dangle are
// treated.
func WithUnresolvedPolicy(p UnresolvedPolicy) MergeOption {
	return func(m *Merger) {
		m.policy = p
	}
}

// NewMerger creates a Merger. The default policy is KeepUnresolved.
func NewMerger(opts ...MergeOption) *Merger {
	m := &Merger{policy: KeepUnresolved}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge appends batch to w in two passes. The allocation pass gives every
// suggestion a fresh local id and records foreign -> local; the wiring pass
// then resolves next and branches through that map, so edges may point at
// suggestions later in the batch. A reference missing from the map falls
// back to its raw value read as a local id.
func (m *Merger) Merge(w *Workflow, batch []Suggestion) MergeResult {
	var res MergeResult
	if w == nil || len(batch) == 0 {
		return res
	}

	idMap := make(map[string]int, len(batch))
	offset := len(w.Steps)
	for _, sug := range batch {
		id := NextID(w)
		if !sug.ID.IsZero() {
			idMap[sug.ID.Key()] = id
		}
		w.Steps = append(w.Steps, Step{
			ID:       id,
			Text:     sug.Label(),
			Type:     sug.ResolvedType(),
			Approval: sug.Approval,
		})
		res.Added = append(res.Added, id)
	}

	for i, sug := range batch {
		step := &w.Steps[offset+i]
		switch step.Type {
		case StepDecision:
			if sug.Branches == nil {
				continue
			}
			step.Branches = &Branches{
				Yes: m.resolve(w, idMap, sug.Branches.Yes),
				No:  m.resolve(w, idMap, sug.Branches.No),
			}
		default:
			step.Next = m.resolve(w, idMap, sug.Next)
		}
	}

	for _, id := range res.Added {
		step, _ := w.Step(id)
		for _, e := range step.Edges() {
			if !w.Has(e.To) {
				res.Dangling = append(res.Dangling, e)
			}
		}
	}
	return res
}

// resolve maps a foreign reference to a local id, or nil when it is absent
// or cannot name a step.
func (m *Merger) resolve(w *Workflow, idMap map[string]int, ref Ref) *int {
	if ref.IsZero() {
		return nil
	}
	if id, ok := idMap[ref.Key()]; ok {
		return intRef(id)
	}
	id, ok := ref.Int()
	if !ok || id <= 0 {
		return nil
	}
	if m.policy == DropUnresolved && !w.Has(id) {
		return nil
	}
	return intRef(id)
}
