package session

import "fmt"

// Status is the state of a planning request.
type Status string

const (
	// StatusIgnored: the task text was empty; nothing was sent.
	StatusIgnored Status = "ignored"

	// StatusPending: the request was sent and is awaiting the planner.
	StatusPending Status = "pending"

	// StatusApplied: suggestions were merged and the diagram re-rendered.
	StatusApplied Status = "applied"

	// StatusEmpty: the planner answered without a usable step list.
	StatusEmpty Status = "empty"

	// StatusStale: a newer request or a reset superseded this one.
	StatusStale Status = "stale"

	// StatusFailed: transport or application failure; nothing changed.
	StatusFailed Status = "failed"
)

// Event is a status notification for UI collaborators.
type Event struct {
	RequestID uint64
	Status    Status
	Message   string
}

// EventReporter fans status events out through a buffered channel.
type EventReporter struct {
	ch chan Event
}

// NewEventReporter creates an EventReporter with a buffered channel of size 64.
func NewEventReporter() *EventReporter {
	return &EventReporter{
		ch: make(chan Event, 64),
	}
}

// Emit sends an event without blocking. If the channel is full, the event
// is dropped.
func (r *EventReporter) Emit(ev Event) {
	select {
	case r.ch <- ev:
	default:
	}
}

// Subscribe returns a read-only channel for consuming events.
func (r *EventReporter) Subscribe() <-chan Event {
	return r.ch
}

// Close closes the event channel.
func (r *EventReporter) Close() {
	close(r.ch)
}

// FormatEvent formats an Event as a human-readable status line.
func FormatEvent(ev Event) string {
	switch ev.Status {
	case StatusPending:
		return fmt.Sprintf("  ● request %d: planning...", ev.RequestID)
	case StatusApplied:
		return fmt.Sprintf("  ✓ request %d: %s", ev.RequestID, ev.Message)
	case StatusEmpty:
		return fmt.Sprintf("  ○ request %d: no valid steps returned", ev.RequestID)
	case StatusStale:
		return fmt.Sprintf("  - request %d: superseded", ev.RequestID)
	case StatusFailed:
		return fmt.Sprintf("  ✗ request %d failed: %s", ev.RequestID, ev.Message)
	case StatusIgnored:
		return "  ? empty request ignored"
	default:
		return fmt.Sprintf("  ? request %d (%s)", ev.RequestID, ev.Status)
	}
}
