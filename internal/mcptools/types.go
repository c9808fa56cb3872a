package mcptools

import (
	"github.com/dusk-indust/stepgraph/internal/graphindex"
	"github.com/dusk-indust/stepgraph/internal/session"
	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// --- MCP Tool Types ---
// The MCP Go SDK derives each tool's JSON schema from these structs.

// SubmitTaskInput is the input for the submit_task MCP tool.
type SubmitTaskInput struct {
	Task         string `json:"task" jsonschema:"natural-language description of the steps to add"`
	AnchorStepID *int   `json:"anchorStepId,omitempty" jsonschema:"id of an existing step the new steps should attach to"`
}

// SubmitTaskOutput is the result of the submit_task MCP tool.
type SubmitTaskOutput struct {
	RequestID uint64          `json:"requestId"`
	Status    session.Status  `json:"status"` // applied, empty, stale, ignored or failed
	Added     []int           `json:"added"`
	Dangling  []workflow.Edge `json:"dangling"`
	Diagram   string          `json:"diagram,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// HistoryInput is the input for the undo and redo MCP tools.
type HistoryInput struct{}

// HistoryOutput is the result of the undo and redo MCP tools.
type HistoryOutput struct {
	Changed bool   `json:"changed"`
	Steps   int    `json:"steps"`
	Diagram string `json:"diagram"`
	Message string `json:"message,omitempty"`
}

// NewWorkflowInput is the input for the new_workflow MCP tool.
type NewWorkflowInput struct{}

// NewWorkflowOutput is the result of the new_workflow MCP tool.
type NewWorkflowOutput struct {
	Diagram string `json:"diagram"`
}

// GetDiagramInput is the input for the get_diagram MCP tool.
type GetDiagramInput struct{}

// GetDiagramOutput is the result of the get_diagram MCP tool.
type GetDiagramOutput struct {
	Diagram string        `json:"diagram"`
	State   session.State `json:"state"`
}

// ExportWorkflowInput is the input for the export_workflow MCP tool.
type ExportWorkflowInput struct {
	Format string `json:"format,omitempty" jsonschema:"json (default) or text"`
}

// ExportWorkflowOutput is the result of the export_workflow MCP tool.
type ExportWorkflowOutput struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

// AnalyzeWorkflowInput is the input for the analyze_workflow MCP tool.
type AnalyzeWorkflowInput struct{}

// AnalyzeWorkflowOutput is the result of the analyze_workflow MCP tool.
type AnalyzeWorkflowOutput struct {
	Report graphindex.Report `json:"report"`
	Clean  bool              `json:"clean"`
}
