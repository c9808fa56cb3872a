package workflow

// NextID returns max(existing ids, 0) + 1. It is recomputed from the current
// steps on every call and is the only source of ids stored in a workflow.
func NextID(w *Workflow) int {
	return w.MaxID() + 1
}
