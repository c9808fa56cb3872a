package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/stepgraph/internal/planner"
	"github.com/dusk-indust/stepgraph/internal/session"
	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// fixedPlanner answers every request with the steps literal, or err.
func fixedPlanner(t *testing.T, steps string, err error) planner.Client {
	t.Helper()
	return planner.ClientFunc(func(_ context.Context, _ planner.Request) (*planner.Response, error) {
		if err != nil {
			return nil, err
		}
		batch, ok := workflow.DecodeSuggestions([]byte(steps))
		return &planner.Response{Steps: batch, ShapeOK: ok}, nil
	})
}

func newService(t *testing.T, client planner.Client) *WorkflowService {
	t.Helper()
	sess := session.New(client)
	t.Cleanup(sess.Close)
	return NewWorkflowService(sess)
}

const twoSteps = `[{"id":"a","text":"Open form"},{"id":"b","text":"Check input","type":"decision","branches":{"yes":"a","no":7}}]`

func TestWorkflowService_SubmitTask(t *testing.T) {
	svc := newService(t, fixedPlanner(t, twoSteps, nil))

	_, out, err := svc.SubmitTask(context.Background(), nil, SubmitTaskInput{Task: "intake"})
	require.NoError(t, err)
	assert.Equal(t, session.StatusApplied, out.Status)
	assert.Equal(t, []int{1, 2}, out.Added)
	assert.Equal(t, []workflow.Edge{{From: 2, To: 7, Label: workflow.LabelNo}}, out.Dangling)
	assert.Contains(t, out.Diagram, `S2{"Check input"}`)
	assert.Empty(t, out.Message)
}

func TestWorkflowService_SubmitTask_Anchored(t *testing.T) {
	var got []planner.Request
	client := planner.ClientFunc(func(_ context.Context, req planner.Request) (*planner.Response, error) {
		got = append(got, req)
		return &planner.Response{ShapeOK: true}, nil
	})
	svc := newService(t, client)

	anchor := 3
	_, _, err := svc.SubmitTask(context.Background(), nil, SubmitTaskInput{Task: "extend", AnchorStepID: &anchor})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].AnchorStepID)
	assert.Equal(t, 3, *got[0].AnchorStepID)
}

func TestWorkflowService_SubmitTask_EmptyTask(t *testing.T) {
	svc := newService(t, fixedPlanner(t, `[]`, nil))

	_, _, err := svc.SubmitTask(context.Background(), nil, SubmitTaskInput{Task: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task is required")
}

func TestWorkflowService_SubmitTask_PlannerFailure(t *testing.T) {
	svc := newService(t, fixedPlanner(t, "", &planner.AppError{Code: "ai_unreachable", Details: "connection refused"}))

	_, out, err := svc.SubmitTask(context.Background(), nil, SubmitTaskInput{Task: "x"})
	require.NoError(t, err, "planner failures are reported in the output")
	assert.Equal(t, session.StatusFailed, out.Status)
	assert.Contains(t, out.Message, "ai_unreachable")
}

func TestWorkflowService_SubmitTask_Closed(t *testing.T) {
	sess := session.New(fixedPlanner(t, `[]`, nil))
	svc := NewWorkflowService(sess)
	sess.Close()

	_, _, err := svc.SubmitTask(context.Background(), nil, SubmitTaskInput{Task: "x"})
	assert.True(t, errors.Is(err, session.ErrClosed))
}

func TestWorkflowService_UndoRedo(t *testing.T) {
	svc := newService(t, fixedPlanner(t, twoSteps, nil))
	ctx := context.Background()

	_, out, err := svc.Undo(ctx, nil, HistoryInput{})
	require.NoError(t, err)
	assert.False(t, out.Changed)

	_, _, err = svc.SubmitTask(ctx, nil, SubmitTaskInput{Task: "intake"})
	require.NoError(t, err)

	_, out, err = svc.Undo(ctx, nil, HistoryInput{})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 0, out.Steps)
	assert.Equal(t, "graph TD", out.Diagram)

	_, out, err = svc.Redo(ctx, nil, HistoryInput{})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, 2, out.Steps)
}

func TestWorkflowService_NewWorkflow(t *testing.T) {
	svc := newService(t, fixedPlanner(t, twoSteps, nil))
	ctx := context.Background()
	_, _, _ = svc.SubmitTask(ctx, nil, SubmitTaskInput{Task: "intake"})

	_, out, err := svc.NewWorkflow(ctx, nil, NewWorkflowInput{})
	require.NoError(t, err)
	assert.Equal(t, "graph TD", out.Diagram)

	_, diag, err := svc.GetDiagram(ctx, nil, GetDiagramInput{})
	require.NoError(t, err)
	assert.Equal(t, 0, diag.State.Steps)
	assert.Equal(t, 0, diag.State.UndoDepth)
}

func TestWorkflowService_ExportWorkflow(t *testing.T) {
	svc := newService(t, fixedPlanner(t, `[{"id":1,"text":"Sign","approval":true}]`, nil))
	ctx := context.Background()
	_, _, _ = svc.SubmitTask(ctx, nil, SubmitTaskInput{Task: "x"})

	_, out, err := svc.ExportWorkflow(ctx, nil, ExportWorkflowInput{})
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, out.Format)
	var wf workflow.Workflow
	require.NoError(t, json.Unmarshal([]byte(out.Content), &wf))
	require.Len(t, wf.Steps, 1)
	assert.True(t, wf.Steps[0].Approval)

	_, out, err = svc.ExportWorkflow(ctx, nil, ExportWorkflowInput{Format: "TEXT"})
	require.NoError(t, err)
	assert.Equal(t, "1. Sign [action] (approval required)", out.Content)

	_, _, err = svc.ExportWorkflow(ctx, nil, ExportWorkflowInput{Format: "yaml"})
	require.Error(t, err)
}

func TestWorkflowService_AnalyzeWorkflow(t *testing.T) {
	svc := newService(t, fixedPlanner(t, twoSteps, nil))
	ctx := context.Background()
	_, _, _ = svc.SubmitTask(ctx, nil, SubmitTaskInput{Task: "intake"})

	_, out, err := svc.AnalyzeWorkflow(ctx, nil, AnalyzeWorkflowInput{})
	require.NoError(t, err)
	assert.False(t, out.Clean)
	assert.Equal(t, 2, out.Report.Stats.Steps)
	assert.Equal(t, []workflow.Edge{{From: 2, To: 7, Label: workflow.LabelNo}}, out.Report.Dangling)
}

func TestWorkflowService_AnalyzeWorkflow_UnknownBackend(t *testing.T) {
	sess := session.New(fixedPlanner(t, `[]`, nil))
	t.Cleanup(sess.Close)
	svc := NewWorkflowService(sess, WithAnalysisBackend("neo4j"))

	_, _, err := svc.AnalyzeWorkflow(context.Background(), nil, AnalyzeWorkflowInput{})
	require.Error(t, err)
}
