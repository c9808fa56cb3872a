// Package session coordinates planning requests against a live workflow:
// it fences out superseded requests and runs snapshot, merge and render
// for the one that is still current.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/stepgraph/internal/export"
	"github.com/dusk-indust/stepgraph/internal/history"
	"github.com/dusk-indust/stepgraph/internal/planner"
	"github.com/dusk-indust/stepgraph/internal/render"
	"github.com/dusk-indust/stepgraph/internal/workflow"
	"go.uber.org/zap"
)

// ErrRender wraps renderer failures. The workflow change that triggered the
// render has already been applied.
var ErrRender = errors.New("session: render failed")

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session: closed")

// DefaultTimeout bounds every planner call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Outcome describes how one Submit call ended.
type Outcome struct {
	RequestID uint64
	Status    Status

	// Added lists the step ids created by the merge.
	Added []int

	// Dangling lists new edges whose target names no step.
	Dangling []workflow.Edge

	// Diagram is the Mermaid text rendered after the merge.
	Diagram string
}

// Result pairs an Outcome with its error for asynchronous submission.
type Result struct {
	Outcome Outcome
	Err     error
}

// State is a read-only summary of the session.
type State struct {
	Steps         int    `json:"steps"`
	UndoDepth     int    `json:"undoDepth"`
	RedoDepth     int    `json:"redoDepth"`
	ActiveRequest uint64 `json:"activeRequest"`
}

// Session owns the live workflow, its history and the request counter. All
// three are guarded by one mutex; the planner call itself runs unlocked and
// its result is applied only if no newer request or reset happened since.
type Session struct {
	mu       sync.Mutex
	wf       *workflow.Workflow
	history  *history.History
	active   uint64
	closed   bool
	planner  planner.Client
	renderer render.Renderer
	merger   *workflow.Merger
	timeout  time.Duration
	logger   *zap.Logger
	events   *EventReporter
}

// Option configures a Session.
type Option func(*Session)

// WithRenderer sets the diagram renderer. The default discards diagrams.
func WithRenderer(r render.Renderer) Option {
	return func(s *Session) {
		s.renderer = r
	}
}

// WithMerger sets the merge engine.
func WithMerger(m *workflow.Merger) Option {
	return func(s *Session) {
		s.merger = m
	}
}

// WithHistory sets the undo/redo history.
func WithHistory(h *history.History) Option {
	return func(s *Session) {
		s.history = h
	}
}

// WithTimeout bounds each planner call. Non-positive durations select
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d <= 0 {
			d = DefaultTimeout
		}
		s.timeout = d
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session with an empty workflow.
func New(client planner.Client, opts ...Option) *Session {
	s := &Session{
		wf:       workflow.New(),
		history:  history.New(),
		planner:  client,
		renderer: render.Nop{},
		merger:   workflow.NewMerger(),
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
		events:   NewEventReporter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the status event stream. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events.Subscribe()
}

// Close fences any in-flight request and closes the event stream.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.active++
	s.events.Close()
}

// Submit sends task to the planner and, if this is still the newest request
// when the answer arrives, snapshots the workflow, merges the suggestions
// and re-renders. Empty tasks are ignored. Superseded answers are dropped
// silently with StatusStale. Transport and application errors leave the
// workflow and history untouched.
func (s *Session) Submit(ctx context.Context, task string) (Outcome, error) {
	return s.submit(ctx, task, nil)
}

// SubmitAnchored is Submit with a hint that new steps should attach to the
// step with id anchor.
func (s *Session) SubmitAnchored(ctx context.Context, task string, anchor int) (Outcome, error) {
	return s.submit(ctx, task, &anchor)
}

// SubmitAsync runs Submit in a goroutine and delivers its result on the
// returned channel.
func (s *Session) SubmitAsync(ctx context.Context, task string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		o, err := s.Submit(ctx, task)
		out <- Result{Outcome: o, Err: err}
	}()
	return out
}

func (s *Session) submit(ctx context.Context, task string, anchor *int) (Outcome, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Outcome{Status: StatusIgnored}, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	s.active++
	id := s.active
	req := planner.Request{
		Task:          task,
		ExistingSteps: s.wf.Clone().Steps,
		AnchorStepID:  anchor,
	}
	s.emit(Event{RequestID: id, Status: StatusPending})
	s.mu.Unlock()

	log := s.logger.With(zap.Uint64("request", id))
	log.Info("planning request sent", zap.String("task", task), zap.Int("existing_steps", len(req.ExistingSteps)))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	resp, err := s.planner.Plan(callCtx, req)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.active {
		log.Debug("dropping superseded planner result", zap.Uint64("active", s.active))
		s.emit(Event{RequestID: id, Status: StatusStale})
		return Outcome{RequestID: id, Status: StatusStale}, nil
	}

	if err != nil {
		log.Warn("planning request failed", zap.Error(err))
		s.emit(Event{RequestID: id, Status: StatusFailed, Message: err.Error()})
		return Outcome{RequestID: id, Status: StatusFailed}, fmt.Errorf("session: request %d: %w", id, err)
	}

	if resp == nil || !resp.ShapeOK {
		log.Info("planner returned no valid steps")
		s.emit(Event{RequestID: id, Status: StatusEmpty})
		return Outcome{RequestID: id, Status: StatusEmpty}, nil
	}

	s.history.Snapshot(s.wf)
	res := s.merger.Merge(s.wf, resp.Steps)
	diagram := export.Mermaid(s.wf)

	out := Outcome{
		RequestID: id,
		Status:    StatusApplied,
		Added:     res.Added,
		Dangling:  res.Dangling,
		Diagram:   diagram,
	}
	if len(res.Dangling) > 0 {
		log.Warn("merged steps reference missing steps", zap.Int("dangling", len(res.Dangling)))
	}
	log.Info("suggestions merged", zap.Ints("added", res.Added), zap.Int("steps", s.wf.Len()))
	s.emit(Event{RequestID: id, Status: StatusApplied, Message: fmt.Sprintf("added %d step(s)", len(res.Added))})

	if err := s.renderLocked(ctx, diagram); err != nil {
		return out, err
	}
	return out, nil
}

// StartNewWorkflow fences any in-flight request, replaces the workflow with
// an empty one, clears the history and renders the empty diagram.
func (s *Session) StartNewWorkflow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.active++
	s.wf = workflow.New()
	s.history.Reset()
	s.logger.Info("new workflow started", zap.Uint64("fence", s.active))
	return s.renderLocked(ctx, export.Mermaid(s.wf))
}

// Cancel fences the in-flight request, if any, without touching the
// workflow. The planner call is not aborted; its answer is discarded.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.active++
}

// Undo restores the previous snapshot and re-renders. It reports false,
// without error, when there is nothing to undo, and ErrClosed after Close.
func (s *Session) Undo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	wf, ok := s.history.Undo(s.wf)
	if !ok {
		return false, nil
	}
	s.wf = wf
	s.logger.Debug("undo", zap.Int("steps", wf.Len()))
	return true, s.renderLocked(ctx, export.Mermaid(s.wf))
}

// Redo re-applies the most recently undone change and re-renders. It
// reports false, without error, when there is nothing to redo.
func (s *Session) Redo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	wf, ok := s.history.Redo(s.wf)
	if !ok {
		return false, nil
	}
	s.wf = wf
	s.logger.Debug("redo", zap.Int("steps", wf.Len()))
	return true, s.renderLocked(ctx, export.Mermaid(s.wf))
}

// Workflow returns a copy of the live workflow.
func (s *Session) Workflow() *workflow.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wf.Clone()
}

// Diagram returns the Mermaid text for the live workflow.
func (s *Session) Diagram() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Mermaid(s.wf)
}

// ExportJSON returns the machine-readable export of the live workflow.
func (s *Session) ExportJSON() ([]byte, error) {
	return export.JSON(s.Workflow())
}

// ExportText returns the human-readable export of the live workflow.
func (s *Session) ExportText() string {
	return export.Text(s.Workflow())
}

// State returns a summary of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	past, future := s.history.Depth()
	return State{
		Steps:         s.wf.Len(),
		UndoDepth:     past,
		RedoDepth:     future,
		ActiveRequest: s.active,
	}
}

// renderLocked hands diagram to the renderer. Callers hold s.mu so that
// diagrams reach the renderer in the order the workflow changed.
func (s *Session) renderLocked(ctx context.Context, diagram string) error {
	if err := s.renderer.Render(ctx, diagram); err != nil {
		s.logger.Error("render failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// emit publishes ev unless the session is closed. Callers hold s.mu.
func (s *Session) emit(ev Event) {
	if s.closed {
		return
	}
	s.events.Emit(ev)
}
