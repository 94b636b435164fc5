package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task lifecycle event types.
const (
	TypeTaskCreated = "task.created"
	TypeTaskEvicted = "task.evicted"
	TypeTaskClosed  = "task.closed"
	TypeTaskDeleted = "task.deleted"
)

// TaskEvent records a change to a user's tasks after it has been committed.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	UserID int64 `json:"user_id"`

	// TaskID is the task created, closed, evicted or deleted.
	TaskID int64 `json:"task_id,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskEvent creates a TaskEvent stamped with a fresh ID and the current time.
func NewTaskEvent(eventType string, userID, taskID int64) *TaskEvent {
	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		TaskID:     taskID,
		OccurredAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
