package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasktracker/internal/domain"
)

// TaskStore defines persistence for tasks, always scoped by user.
//
// Every mutating method is durable once it returns: on the pool each statement
// autocommits, and on a transactional store (WithTx) the caller commits. No
// implementation may cache task state between calls.
type TaskStore interface {
	// CountAll returns the total number of tasks and the number of closed tasks
	// for the user. Both are zero for a user without tasks.
	CountAll(ctx context.Context, userID int64) (domain.TaskCounters, error)

	// CountOpen returns the number of open tasks for the user.
	CountOpen(ctx context.Context, userID int64) (int64, error)

	// Insert appends a new open task and returns its assigned ID.
	// A nil description is stored as NULL.
	Insert(ctx context.Context, userID int64, description *string) (int64, error)

	// CloseOldestOpen closes the open task with the smallest ID and returns
	// that ID. It reports false, without error, when the user has no open tasks.
	CloseOldestOpen(ctx context.Context, userID int64) (int64, bool, error)

	// CloseByID closes the task identified by (userID, taskID).
	// It reports whether a row matched; closing an already closed task
	// matches and changes nothing.
	CloseByID(ctx context.Context, userID, taskID int64) (bool, error)

	// Exists reports whether the task identified by (userID, taskID) exists.
	Exists(ctx context.Context, userID, taskID int64) (bool, error)

	// DeleteByID permanently removes the task and reports whether a row was removed.
	DeleteByID(ctx context.Context, userID, taskID int64) (bool, error)

	// Get returns a single task.
	// Returns ErrTaskNotFound if no row matches (userID, taskID).
	Get(ctx context.Context, userID, taskID int64) (*domain.Task, error)

	// WithTx returns a TaskStore bound to tx. The caller owns commit and rollback.
	WithTx(tx *sql.Tx) TaskStore

	// DB returns the underlying connection pool, used to start transactions.
	DB() *sql.DB
}
