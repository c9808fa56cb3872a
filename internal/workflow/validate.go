package workflow

import "fmt"

// ProblemKind classifies a structural problem found by Validate.
type ProblemKind string

const (
	ProblemInvalidID    ProblemKind = "invalid-id"
	ProblemDuplicateID  ProblemKind = "duplicate-id"
	ProblemInvalidType  ProblemKind = "invalid-type"
	ProblemMixedEdges   ProblemKind = "mixed-edges"
	ProblemDanglingEdge ProblemKind = "dangling-edge"
)

// Problem is one structural issue in a workflow.
type Problem struct {
	Kind    ProblemKind `json:"kind"`
	StepID  int         `json:"stepId"`
	Message string      `json:"message"`
}

// Validate reports structural problems without modifying w: ids that are
// not unique positive integers, steps that mix next and branches, and edges
// that name no step.
func (w *Workflow) Validate() []Problem {
	if w == nil {
		return nil
	}
	var problems []Problem
	seen := make(map[int]bool, len(w.Steps))
	for _, s := range w.Steps {
		if s.ID <= 0 {
			problems = append(problems, Problem{
				Kind:    ProblemInvalidID,
				StepID:  s.ID,
				Message: fmt.Sprintf("step id %d is not positive", s.ID),
			})
		}
		if seen[s.ID] {
			problems = append(problems, Problem{
				Kind:    ProblemDuplicateID,
				StepID:  s.ID,
				Message: fmt.Sprintf("step id %d appears more than once", s.ID),
			})
		}
		seen[s.ID] = true

		if !s.Type.Valid() {
			problems = append(problems, Problem{
				Kind:    ProblemInvalidType,
				StepID:  s.ID,
				Message: fmt.Sprintf("step %d has unknown type %q", s.ID, s.Type),
			})
		}
		if s.Next != nil && s.Branches != nil {
			problems = append(problems, Problem{
				Kind:    ProblemMixedEdges,
				StepID:  s.ID,
				Message: fmt.Sprintf("step %d sets both next and branches", s.ID),
			})
		}
	}

	for _, e := range w.Edges() {
		if !seen[e.To] {
			problems = append(problems, Problem{
				Kind:    ProblemDanglingEdge,
				StepID:  e.From,
				Message: danglingMessage(e),
			})
		}
	}
	return problems
}

func danglingMessage(e Edge) string {
	if e.Label != "" {
		return fmt.Sprintf("step %d %s branch points at missing step %d", e.From, e.Label, e.To)
	}
	return fmt.Sprintf("step %d points at missing step %d", e.From, e.To)
}
