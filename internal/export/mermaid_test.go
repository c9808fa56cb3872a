package export

import (
	"strings"
	"testing"

	"github.com/dusk-indust/stepgraph/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(v int) *int { return &v }

// orderFlow is a small workflow exercising every node and edge kind.
func orderFlow() *workflow.Workflow {
	return &workflow.Workflow{Steps: []workflow.Step{
		{ID: 1, Text: "Receive order", Type: workflow.StepAction, Next: ref(2)},
		{ID: 2, Text: `Is "VIP" customer?`, Type: workflow.StepDecision, Branches: &workflow.Branches{Yes: ref(3), No: ref(4)}},
		{ID: 3, Text: "Manager sign-off", Type: workflow.StepAction, Approval: true, Next: ref(4)},
		{ID: 4, Text: "Ship", Type: workflow.StepAction},
	}}
}

func TestMermaid_Empty(t *testing.T) {
	assert.Equal(t, "graph TD", Mermaid(workflow.New()))
	assert.Equal(t, "graph TD", Mermaid(nil))
}

func TestMermaid_FullGraph(t *testing.T) {
	want := strings.Join([]string{
		"graph TD",
		`  S1["Receive order"]`,
		"  S1 --> S2",
		`  S2{"Is 'VIP' customer?"}`,
		"  S2 -- Yes --> S3",
		"  S2 -- No --> S4",
		`  S3["Manager sign-off"]`,
		"  S3 --> S4",
		`  S4["Ship"]`,
		"  classDef approval fill:#fff3cd,stroke:#d39e00,stroke-width:2px",
		"  class S3 approval",
	}, "\n")

	assert.Equal(t, want, Mermaid(orderFlow()))
}

func TestMermaid_DecisionWithSingleBranch(t *testing.T) {
	w := &workflow.Workflow{Steps: []workflow.Step{
		{ID: 1, Text: "Valid?", Type: workflow.StepDecision, Branches: &workflow.Branches{Yes: ref(5)}},
		{ID: 2, Text: "Retry?", Type: workflow.StepDecision, Branches: &workflow.Branches{No: ref(1)}},
		{ID: 3, Text: "Orphan", Type: workflow.StepDecision},
	}}

	got := Mermaid(w)
	assert.Equal(t, strings.Join([]string{
		"graph TD",
		`  S1{"Valid?"}`,
		"  S1 -- Yes --> S5",
		`  S2{"Retry?"}`,
		"  S2 -- No --> S1",
		`  S3{"Orphan"}`,
	}, "\n"), got, "dangling targets are still emitted")
	assert.NotContains(t, got, "classDef")
}

func TestMermaid_EveryApprovalStepGetsAClass(t *testing.T) {
	w := &workflow.Workflow{Steps: []workflow.Step{
		{ID: 1, Text: "a", Type: workflow.StepAction, Approval: true},
		{ID: 2, Text: "b", Type: workflow.StepAction},
		{ID: 3, Text: "c", Type: workflow.StepDecision, Approval: true},
	}}

	lines := strings.Split(Mermaid(w), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "  classDef approval fill:#fff3cd,stroke:#d39e00,stroke-width:2px", lines[4])
	assert.Equal(t, "  class S1 approval", lines[5])
	assert.Equal(t, "  class S3 approval", lines[6])
}

func TestMermaid_Deterministic(t *testing.T) {
	a := orderFlow()
	b := a.Clone()
	assert.Equal(t, Mermaid(a), Mermaid(b))
	assert.Equal(t, Mermaid(a), Mermaid(a))
}

func TestMermaid_FollowsStepOrder(t *testing.T) {
	w := &workflow.Workflow{Steps: []workflow.Step{
		{ID: 9, Text: "late id first", Type: workflow.StepAction},
		{ID: 2, Text: "early id second", Type: workflow.StepAction},
	}}
	got := Mermaid(w)
	assert.Less(t, strings.Index(got, "S9["), strings.Index(got, "S2["))
}
