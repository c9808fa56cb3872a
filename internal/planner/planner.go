// Package planner talks to the external planning service that turns a
// natural-language request into suggested workflow steps.
package planner

import (
	"context"

	"github.com/dusk-indust/stepgraph/internal/workflow"
)

// Client requests step suggestions from a planner.
type Client interface {
	// Plan sends one planning request. A nil error with Response.ShapeOK
	// false means the planner answered without a usable step list.
	Plan(ctx context.Context, req Request) (*Response, error)
}

// Request is the body sent to the planner.
type Request struct {
	Task string `json:"task"`

	// ExistingSteps is the read-only context for the planner. Nil when the
	// client runs in append-only mode.
	ExistingSteps []workflow.Step `json:"existing_steps"`

	// AnchorStepID asks the planner to attach new steps to this step.
	AnchorStepID *int `json:"anchor_step_id,omitempty"`
}

// Response is a decoded planner answer.
type Response struct {
	// Steps is the suggestion batch in planner order.
	Steps []workflow.Suggestion

	// ShapeOK is false when the steps field was missing or not an array.
	ShapeOK bool
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

// Plan calls f.
func (f ClientFunc) Plan(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
