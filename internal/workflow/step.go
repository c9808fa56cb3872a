package workflow

// StepType classifies a step and determines its edge semantics.
type StepType string

const (
	// StepAction has at most one outgoing edge (Next).
	StepAction StepType = "action"

	// StepDecision has up to two labeled outgoing edges (Branches).
	StepDecision StepType = "decision"
)

// Valid reports whether t is a known step type.
func (t StepType) Valid() bool {
	return t == StepAction || t == StepDecision
}

// Edge labels used for decision branches.
const (
	LabelYes = "Yes"
	LabelNo  = "No"
)

// Step is a single node in the workflow graph.
type Step struct {
	ID       int       `json:"id"`
	Text     string    `json:"text"`
	Type     StepType  `json:"type"`
	Approval bool      `json:"approval"`
	Next     *int      `json:"next"`
	Branches *Branches `json:"branches"`
}

// Branches holds the outgoing edges of a decision step.
type Branches struct {
	Yes *int `json:"yes"`
	No  *int `json:"no"`
}

// Edge is a directed reference from one step to another. Label is empty for
// action edges and LabelYes/LabelNo for decision branches.
type Edge struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Label string `json:"label,omitempty"`
}

// Edges returns the outgoing edges of s in rendering order: Next for
// actions, Yes then No for decisions.
func (s Step) Edges() []Edge {
	var out []Edge
	if s.Type == StepDecision {
		if s.Branches == nil {
			return nil
		}
		if s.Branches.Yes != nil {
			out = append(out, Edge{From: s.ID, To: *s.Branches.Yes, Label: LabelYes})
		}
		if s.Branches.No != nil {
			out = append(out, Edge{From: s.ID, To: *s.Branches.No, Label: LabelNo})
		}
		return out
	}
	if s.Next != nil {
		out = append(out, Edge{From: s.ID, To: *s.Next})
	}
	return out
}

// clone returns a copy of s that shares no pointers with it.
func (s Step) clone() Step {
	c := s
	c.Next = cloneRef(s.Next)
	if s.Branches != nil {
		c.Branches = &Branches{
			Yes: cloneRef(s.Branches.Yes),
			No:  cloneRef(s.Branches.No),
		}
	}
	return c
}

func cloneRef(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// intRef returns a pointer to a fresh copy of v.
func intRef(v int) *int {
	return &v
}
