package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/stepgraph/internal/graphindex"
	"github.com/dusk-indust/stepgraph/internal/session"
)

// Export formats accepted by export_workflow.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// WorkflowService handles MCP tool calls against one editing session.
type WorkflowService struct {
	sess    *session.Session
	backend graphindex.Backend
	logger  *zap.Logger
}

// ServiceOption configures a WorkflowService.
type ServiceOption func(*WorkflowService)

// WithAnalysisBackend selects the graph index used by analyze_workflow.
func WithAnalysisBackend(b graphindex.Backend) ServiceOption {
	return func(s *WorkflowService) {
		s.backend = b
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *WorkflowService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewWorkflowService creates a WorkflowService over sess.
func NewWorkflowService(sess *session.Session, opts ...ServiceOption) *WorkflowService {
	s := &WorkflowService{
		sess:    sess,
		backend: graphindex.BackendMemory,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitTask sends a task to the planner and merges the answer. Planner
// failures are reported in the output, not as tool errors, so the caller
// can retry.
func (s *WorkflowService) SubmitTask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitTaskInput,
) (*mcp.CallToolResult, SubmitTaskOutput, error) {
	if strings.TrimSpace(input.Task) == "" {
		return nil, SubmitTaskOutput{}, fmt.Errorf("task is required")
	}

	var (
		out session.Outcome
		err error
	)
	if input.AnchorStepID != nil {
		out, err = s.sess.SubmitAnchored(ctx, input.Task, *input.AnchorStepID)
	} else {
		out, err = s.sess.Submit(ctx, input.Task)
	}
	if errors.Is(err, session.ErrClosed) {
		return nil, SubmitTaskOutput{}, err
	}

	res := SubmitTaskOutput{
		RequestID: out.RequestID,
		Status:    out.Status,
		Added:     out.Added,
		Dangling:  out.Dangling,
		Diagram:   out.Diagram,
	}
	if err != nil {
		s.logger.Warn("submit_task", zap.Error(err))
		res.Message = err.Error()
	}
	return nil, res, nil
}

// Undo restores the previous workflow state.
func (s *WorkflowService) Undo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	changed, err := s.sess.Undo(ctx)
	return nil, s.historyOutput(changed, err), nil
}

// Redo re-applies the most recently undone change.
func (s *WorkflowService) Redo(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	changed, err := s.sess.Redo(ctx)
	return nil, s.historyOutput(changed, err), nil
}

func (s *WorkflowService) historyOutput(changed bool, err error) HistoryOutput {
	out := HistoryOutput{
		Changed: changed,
		Steps:   s.sess.State().Steps,
		Diagram: s.sess.Diagram(),
	}
	if err != nil {
		out.Message = err.Error()
	}
	return out
}

// NewWorkflow discards the workflow and its history.
func (s *WorkflowService) NewWorkflow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NewWorkflowInput,
) (*mcp.CallToolResult, NewWorkflowOutput, error) {
	if err := s.sess.StartNewWorkflow(ctx); err != nil && !errors.Is(err, session.ErrRender) {
		return nil, NewWorkflowOutput{}, err
	}
	return nil, NewWorkflowOutput{Diagram: s.sess.Diagram()}, nil
}

// GetDiagram returns the Mermaid text and a session summary.
func (s *WorkflowService) GetDiagram(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetDiagramInput,
) (*mcp.CallToolResult, GetDiagramOutput, error) {
	return nil, GetDiagramOutput{
		Diagram: s.sess.Diagram(),
		State:   s.sess.State(),
	}, nil
}

// ExportWorkflow returns the workflow as JSON or as a text list.
func (s *WorkflowService) ExportWorkflow(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExportWorkflowInput,
) (*mcp.CallToolResult, ExportWorkflowOutput, error) {
	format := strings.ToLower(input.Format)
	switch format {
	case "", FormatJSON:
		data, err := s.sess.ExportJSON()
		if err != nil {
			return nil, ExportWorkflowOutput{}, fmt.Errorf("export json: %w", err)
		}
		return nil, ExportWorkflowOutput{Format: FormatJSON, Content: string(data)}, nil
	case FormatText:
		return nil, ExportWorkflowOutput{Format: FormatText, Content: s.sess.ExportText()}, nil
	default:
		return nil, ExportWorkflowOutput{}, fmt.Errorf("unsupported format %q (want json or text)", input.Format)
	}
}

// AnalyzeWorkflow indexes the workflow and reports dangling edges,
// unreachable steps and validation problems.
func (s *WorkflowService) AnalyzeWorkflow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ AnalyzeWorkflowInput,
) (*mcp.CallToolResult, AnalyzeWorkflowOutput, error) {
	store, err := graphindex.Open(s.backend)
	if err != nil {
		return nil, AnalyzeWorkflowOutput{}, err
	}
	defer store.Close()

	report, err := graphindex.Analyze(ctx, store, s.sess.Workflow())
	if err != nil {
		return nil, AnalyzeWorkflowOutput{}, err
	}
	return nil, AnalyzeWorkflowOutput{Report: *report, Clean: report.Clean()}, nil
}
