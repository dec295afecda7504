package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of lifecycle transition an event describes.
type EventType string

// Possible lifecycle event types.
const (
	// EventStarted is emitted when a grant is accepted and its handler invoked.
	EventStarted EventType = "started"

	// EventCompleted is emitted when a handler finishes successfully before
	// the deadline.
	EventCompleted EventType = "completed"

	// EventExpired is emitted when the deadline watchdog claims the grant
	// before the handler finished.
	EventExpired EventType = "expired"

	// EventFailed is emitted when a handler returns an error, or when a grant
	// is rejected before any handler runs (unregistered identifier, duplicate
	// grant).
	EventFailed EventType = "failed"
)

// Event is a single lifecycle notification. It carries no identity beyond
// emission order; listeners consume it at most once.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which lifecycle transition occurred
	Type EventType `json:"type"`

	// TaskID is the task identifier the grant was issued for
	TaskID string `json:"task_id"`

	// GrantHandle references the scheduler grant this event belongs to
	GrantHandle uuid.UUID `json:"grant_handle"`

	// Timestamp is when the transition occurred
	Timestamp time.Time `json:"timestamp"`

	// Error holds the failure reason for failed/expired events, empty otherwise
	Error string `json:"error,omitempty"`
}

// New creates an Event stamped with a fresh ID and the current time.
// A nil err leaves the Error field empty.
func New(eventType EventType, taskID string, grantHandle uuid.UUID, err error) Event {
	ev := Event{
		ID:          uuid.New(),
		Type:        eventType,
		TaskID:      taskID,
		GrantHandle: grantHandle,
		Timestamp:   time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Listener defines an interface for components that consume lifecycle events.
type Listener interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled; the error is logged
	// by the bus and never propagated to the emitter.
	HandleEvent(ctx context.Context, event Event) error
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(ctx context.Context, event Event) error

// HandleEvent calls f(ctx, event).
func (f ListenerFunc) HandleEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Emitter defines an interface for components that publish lifecycle events.
// This allows the coordinator to emit events without direct knowledge of
// listeners.
type Emitter interface {
	// Emit publishes the given event to all subscribed listeners.
	// It never blocks and never returns a delivery error to the caller.
	Emit(event Event)
}
