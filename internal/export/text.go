package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// Text returns a human-readable flat list of steps: one line per step with
// its id, text, type and approval flag.
func Text(w *workflow.Workflow) string {
	if w.Len() == 0 {
		return "No steps."
	}
	var sb strings.Builder
	for i, s := range w.Steps {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s [%s]", s.ID, s.Text, s.Type))
		if s.Approval {
			sb.WriteString(" (approval required)")
		}
	}
	return sb.String()
}
