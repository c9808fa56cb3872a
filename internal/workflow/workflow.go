// Package workflow holds the step graph model and the operations that grow
// it: id allocation, suggestion decoding and the append-only merge.
package workflow

// Workflow is an ordered sequence of steps. Insertion order is display
// order, not necessarily topological order.
type Workflow struct {
	Steps []Step `json:"steps"`
}

// New returns an empty workflow.
func New() *Workflow {
	return &Workflow{Steps: []Step{}}
}

// MaxID returns the largest step id present, or 0 if the workflow is empty.
func (w *Workflow) MaxID() int {
	if w == nil {
		return 0
	}
	max := 0
	for _, s := range w.Steps {
		if s.ID > max {
			max = s.ID
		}
	}
	return max
}

// Len returns the number of steps.
func (w *Workflow) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Steps)
}

// Step returns the step with the given id.
func (w *Workflow) Step(id int) (*Step, bool) {
	if w == nil {
		return nil, false
	}
	for i := range w.Steps {
		if w.Steps[i].ID == id {
			return &w.Steps[i], true
		}
	}
	return nil, false
}

// Has reports whether a step with the given id exists.
func (w *Workflow) Has(id int) bool {
	_, ok := w.Step(id)
	return ok
}

// Clone returns a structural deep copy. The copy shares no step, edge or
// branch memory with w, so later mutation of either side is invisible to
// the other.
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	steps := make([]Step, len(w.Steps))
	for i, s := range w.Steps {
		steps[i] = s.clone()
	}
	return &Workflow{Steps: steps}
}

// Edges returns every outgoing edge in step order.
func (w *Workflow) Edges() []Edge {
	if w == nil {
		return nil
	}
	var out []Edge
	for _, s := range w.Steps {
		out = append(out, s.Edges()...)
	}
	return out
}
