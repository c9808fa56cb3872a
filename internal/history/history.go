// Package history keeps linear undo/redo stacks of workflow snapshots.
package history

import "github.com/dusk-indust/stepgraph/internal/workflow"

// History holds past and future snapshots around a live workflow. Every
// entry is a private clone: nothing pushed is ever aliased with the live
// workflow or with another entry, and popped entries leave the stack.
//
// History is not safe for concurrent use; the owning session serializes
// access.
type History struct {
	past   []*workflow.Workflow
	future []*workflow.Workflow
	limit  int
}

// Option configures a History.
type Option func(*History)

// WithLimit caps each stack at n entries, discarding the oldest first.
// n <= 0 means unbounded.
func WithLimit(n int) Option {
	return func(h *History) {
		h.limit = n
	}
}

// New creates an empty History.
func New(opts ...Option) *History {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Snapshot records a copy of cur as the most recent undo point and discards
// all redo entries, even if no mutation follows.
func (h *History) Snapshot(cur *workflow.Workflow) {
	h.past = h.push(h.past, cur.Clone())
	h.future = nil
}

// Undo returns the most recent snapshot and records a copy of cur for redo.
// It returns cur and false when there is nothing to undo.
func (h *History) Undo(cur *workflow.Workflow) (*workflow.Workflow, bool) {
	if len(h.past) == 0 {
		return cur, false
	}
	h.future = h.push(h.future, cur.Clone())
	prev := h.past[len(h.past)-1]
	h.past[len(h.past)-1] = nil
	h.past = h.past[:len(h.past)-1]
	return prev, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(cur *workflow.Workflow) (*workflow.Workflow, bool) {
	if len(h.future) == 0 {
		return cur, false
	}
	h.past = h.push(h.past, cur.Clone())
	next := h.future[len(h.future)-1]
	h.future[len(h.future)-1] = nil
	h.future = h.future[:len(h.future)-1]
	return next, true
}

// Reset clears both stacks.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}

// CanUndo reports whether Undo would change anything.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would change anything.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (h *History) Depth() (past, future int) {
	return len(h.past), len(h.future)
}

func (h *History) push(stack []*workflow.Workflow, w *workflow.Workflow) []*workflow.Workflow {
	stack = append(stack, w)
	if h.limit > 0 && len(stack) > h.limit {
		drop := len(stack) - h.limit
		clear(stack[:drop])
		stack = stack[drop:]
	}
	return stack
}
