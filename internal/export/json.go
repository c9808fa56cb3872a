package export

import (
	"encoding/json"
	"fmt"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// JSON returns an indented machine-readable export of w. A nil workflow
// exports as an empty step list.
func JSON(w *workflow.Workflow) ([]byte, error) {
	if w == nil {
		w = workflow.New()
	}
	out, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	return out, nil
}

// ParseJSON decodes a workflow previously written by JSON. The steps are
// taken as-is; callers that need to trust them should run Validate.
func ParseJSON(data []byte) (*workflow.Workflow, error) {
	var w workflow.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse workflow JSON: %w", err)
	}
	if w.Steps == nil {
		w.Steps = []workflow.Step{}
	}
	return &w, nil
}
