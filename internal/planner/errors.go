package planner

import (
	"errors"
	"fmt"
)

// ErrNoJSON is returned when a planner body holds no JSON object.
var ErrNoJSON = errors.New("planner: no JSON object in response")

// TransportError means the planning call did not complete: the request
// failed, the service answered with a non-2xx status, or the body could
// not be decoded.
type TransportError struct {
	StatusCode int // 0 when no HTTP response was received
	Body       string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("planner: HTTP %d: %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("planner: transport: %v", e.Err)
	default:
		return "planner: transport failure"
	}
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// AppError means the planner completed the call but reported a failure in
// its error field.
type AppError struct {
	Code    string
	Details string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("planner: %s: %s", e.Code, e.Details)
	}
	return fmt.Sprintf("planner: %s", e.Code)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsApp reports whether err is or wraps an *AppError.
func IsApp(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}
