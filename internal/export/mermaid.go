package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// ApprovalClass is the Mermaid class assigned to steps that need sign-off.
const ApprovalClass = "approval"

// approvalStyle is the classDef body for ApprovalClass.
const approvalStyle = "fill:#fff3cd,stroke:#d39e00,stroke-width:2px"

// Mermaid renders a workflow as a Mermaid graph TD diagram. Output follows
// step order: each node line is followed by its outgoing edges. Decisions
// are diamonds with Yes/No labeled edges, actions are rectangles. Double
// quotes in labels become single quotes since Mermaid uses them as label
// delimiters.
func Mermaid(w *workflow.Workflow) string {
	lines := []string{"graph TD"}
	var approvals []int

	if w != nil {
		for _, s := range w.Steps {
			id := NodeID(s.ID)
			label := escapeLabel(s.Text)
			if s.Type == workflow.StepDecision {
				lines = append(lines, fmt.Sprintf("  %s{\"%s\"}", id, label))
			} else {
				lines = append(lines, fmt.Sprintf("  %s[\"%s\"]", id, label))
			}

			for _, e := range s.Edges() {
				if e.Label != "" {
					lines = append(lines, fmt.Sprintf("  %s -- %s --> %s", id, e.Label, NodeID(e.To)))
				} else {
					lines = append(lines, fmt.Sprintf("  %s --> %s", id, NodeID(e.To)))
				}
			}

			if s.Approval {
				approvals = append(approvals, s.ID)
			}
		}
	}

	if len(approvals) > 0 {
		lines = append(lines, fmt.Sprintf("  classDef %s %s", ApprovalClass, approvalStyle))
		for _, id := range approvals {
			lines = append(lines, fmt.Sprintf("  class %s %s", NodeID(id), ApprovalClass))
		}
	}

	return strings.Join(lines, "\n")
}

// NodeID returns the Mermaid node identifier for a step id.
func NodeID(id int) string {
	return fmt.Sprintf("S%d", id)
}

// escapeLabel replaces double quotes, the only character that can break a
// quoted Mermaid label. The substitution is lossy.
func escapeLabel(text string) string {
	return strings.ReplaceAll(text, `"`, "'")
}
