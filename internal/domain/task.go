package domain

import "fmt"

// Capacity defaults. The open-task ceiling and the batch bound are
// independent: the ceiling limits a user's simultaneously open tasks, the
// batch bound limits how many tasks one request may create.
const (
	DefaultMaxOpenTasks = 10
	MinBatchSize        = 1
	DefaultMaxBatchSize = 5
)

// Task is a single tracked item owned by a user.
//
// ID is assigned by the store in creation order and is never reused, which
// makes the smallest open ID the oldest open task. IsClosed only ever moves
// from false to true.
type Task struct {
	ID          int64   `json:"task_id"`
	UserID      int64   `json:"user_id"`
	Description *string `json:"task_description"`
	IsClosed    bool    `json:"is_closed"`
}

// TaskCounters summarizes a user's tasks.
type TaskCounters struct {
	Created int64 `json:"tasks_created"`
	Closed  int64 `json:"tasks_closed"`
}

// Open returns the number of tasks that are still open.
func (c TaskCounters) Open() int64 {
	return c.Created - c.Closed
}

// ValidateUserID checks that id identifies a user. Users are not looked up
// anywhere; any positive integer is accepted.
func ValidateUserID(id int64) error {
	if id <= 0 {
		return NewValidationError("user_id", "must be a positive integer", ErrInvalidID)
	}
	return nil
}

// ValidateTaskID checks that id could identify a stored task.
func ValidateTaskID(id int64) error {
	if id <= 0 {
		return NewValidationError("task_id", "must be a positive integer", ErrInvalidID)
	}
	return nil
}

// ValidateBatchSize checks that a batch of n descriptions lies within
// [MinBatchSize, maxSize].
func ValidateBatchSize(n, maxSize int) error {
	if n < MinBatchSize || n > maxSize {
		return NewValidationError(
			"batch",
			fmt.Sprintf("must contain %d to %d tasks, got %d", MinBatchSize, maxSize, n),
			ErrInvalidBatchSize,
		)
	}
	return nil
}
