package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with all workflow tools registered.
func NewMCPServer(svc *WorkflowService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "stepgraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_task",
		Description: "Ask the planner for steps that accomplish a task and append them to the workflow. Returns the ids of the new steps and the updated Mermaid diagram.",
	}, svc.SubmitTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "undo",
		Description: "Restore the workflow to the state before the last applied change.",
	}, svc.Undo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "redo",
		Description: "Re-apply the most recently undone change.",
	}, svc.Redo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "new_workflow",
		Description: "Discard the current workflow and its undo history and start from an empty workflow. Any in-flight submit_task result is dropped.",
	}, svc.NewWorkflow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_diagram",
		Description: "Return the Mermaid flowchart for the current workflow along with step count and undo/redo depth.",
	}, svc.GetDiagram)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_workflow",
		Description: "Export the current workflow as JSON ({\"steps\": [...]}) or as a numbered text list.",
	}, svc.ExportWorkflow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_workflow",
		Description: "Index the workflow as a graph and report dangling edges, steps unreachable from any entry step, and other structural problems.",
	}, svc.AnalyzeWorkflow)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewHTTPHandler returns a streamable HTTP handler serving server.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}

// RunHTTP serves the MCP tools over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: NewHTTPHandler(server),
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
