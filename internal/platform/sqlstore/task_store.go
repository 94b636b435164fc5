package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktracker/internal/domain"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/phrazzld/tasktracker/internal/store"
)

const (
	taskEntity         = "task"
	taskStoreComponent = "task_store"
)

// TaskStore implements store.TaskStore over database/sql for every
// supported dialect.
type TaskStore struct {
	db      store.DBTX
	pool    *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a task store backed by the pool.
// If logger is nil, the default logger is used.
func NewTaskStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:      db,
		pool:    db,
		dialect: dialect,
		logger:  logger,
	}
}

// WithTx returns a store that runs every statement inside tx.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{
		db:      tx,
		pool:    s.pool,
		dialect: s.dialect,
		logger:  s.logger,
	}
}

// DB returns the underlying pool.
func (s *TaskStore) DB() *sql.DB {
	return s.pool
}

func (s *TaskStore) fail(op, msg string, err error) error {
	return store.NewStoreError(taskEntity, op, msg, MapError(err))
}

// CountAll implements store.TaskStore.CountAll.
func (s *TaskStore) CountAll(ctx context.Context, userID int64) (domain.TaskCounters, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	query := s.dialect.Rebind(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_closed THEN 1 ELSE 0 END), 0)
		FROM tasks_data
		WHERE user_id = ?
	`)

	var counters domain.TaskCounters
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&counters.Created, &counters.Closed); err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return domain.TaskCounters{}, s.fail("count_all", "failed to count tasks", err)
	}

	return counters, nil
}

// CountOpen implements store.TaskStore.CountOpen.
func (s *TaskStore) CountOpen(ctx context.Context, userID int64) (int64, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	query := s.dialect.Rebind(`
		SELECT COUNT(*)
		FROM tasks_data
		WHERE user_id = ? AND is_closed = FALSE
	`)

	var open int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&open); err != nil {
		log.Error("failed to count open tasks",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return 0, s.fail("count_open", "failed to count open tasks", err)
	}

	return open, nil
}

// Insert implements store.TaskStore.Insert.
func (s *TaskStore) Insert(ctx context.Context, userID int64, description *string) (int64, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	desc := sql.NullString{}
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}

	var (
		id  int64
		err error
	)
	if s.dialect.supportsReturning {
		query := s.dialect.Rebind(`
			INSERT INTO tasks_data (user_id, task_description, is_closed)
			VALUES (?, ?, FALSE)
			RETURNING task_id
		`)
		err = s.db.QueryRowContext(ctx, query, userID, desc).Scan(&id)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO tasks_data (user_id, task_description, is_closed)
			VALUES (?, ?, FALSE)
		`, userID, desc)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}

	if err != nil {
		log.Error("failed to insert task",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return 0, s.fail("insert", "failed to insert task", err)
	}

	log.Debug("task inserted",
		slog.Int64("user_id", userID),
		slog.Int64("task_id", id))
	return id, nil
}

// CloseOldestOpen implements store.TaskStore.CloseOldestOpen.
func (s *TaskStore) CloseOldestOpen(ctx context.Context, userID int64) (int64, bool, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	var (
		taskID int64
		err    error
	)
	if s.dialect.supportsReturning {
		err = s.db.QueryRowContext(ctx, s.dialect.Rebind(s.dialect.closeOldestOpenSQL), userID).Scan(&taskID)
	} else {
		taskID, err = s.lockAndCloseOldestOpen(ctx, userID)
	}

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no open task to close", slog.Int64("user_id", userID))
		return 0, false, nil
	}
	if err != nil {
		log.Error("failed to close oldest open task",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return 0, false, s.fail("close_oldest_open", "failed to close oldest open task", err)
	}

	return taskID, true, nil
}

// lockAndCloseOldestOpen selects the oldest open task FOR UPDATE and closes it
// by ID. On the pool both statements run in their own transaction so the row
// lock covers the update; inside a caller's transaction they join it.
// It returns sql.ErrNoRows when the user has no open task.
func (s *TaskStore) lockAndCloseOldestOpen(ctx context.Context, userID int64) (int64, error) {
	closeIn := func(ctx context.Context, db store.DBTX) (int64, error) {
		var taskID int64
		if err := db.QueryRowContext(ctx, s.dialect.Rebind(s.dialect.closeOldestOpenSQL), userID).Scan(&taskID); err != nil {
			return 0, err
		}
		query := s.dialect.Rebind(`
			UPDATE tasks_data
			SET is_closed = TRUE
			WHERE task_id = ? AND is_closed = FALSE
		`)
		if _, err := db.ExecContext(ctx, query, taskID); err != nil {
			return 0, err
		}
		return taskID, nil
	}

	if _, pooled := s.db.(*sql.DB); !pooled {
		return closeIn(ctx, s.db)
	}

	var taskID int64
	err := store.RunInTransaction(ctx, s.pool, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		taskID, err = closeIn(ctx, tx)
		return err
	})
	return taskID, err
}

// CloseByID implements store.TaskStore.CloseByID.
func (s *TaskStore) CloseByID(ctx context.Context, userID, taskID int64) (bool, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	query := s.dialect.Rebind(`
		UPDATE tasks_data
		SET is_closed = TRUE
		WHERE user_id = ? AND task_id = ?
	`)

	res, err := s.db.ExecContext(ctx, query, userID, taskID)
	if err != nil {
		log.Error("failed to close task",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID))
		return false, s.fail("close_by_id", "failed to close task", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail("close_by_id", "failed to read affected rows", err)
	}
	return n > 0, nil
}

// Exists implements store.TaskStore.Exists.
func (s *TaskStore) Exists(ctx context.Context, userID, taskID int64) (bool, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	query := s.dialect.Rebind(`
		SELECT EXISTS (
			SELECT 1 FROM tasks_data WHERE user_id = ? AND task_id = ?
		)
	`)

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userID, taskID).Scan(&exists); err != nil {
		log.Error("failed to check task existence",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID))
		return false, s.fail("exists", "failed to check task existence", err)
	}
	return exists, nil
}

// DeleteByID implements store.TaskStore.DeleteByID.
func (s *TaskStore) DeleteByID(ctx context.Context, userID, taskID int64) (bool, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	query := s.dialect.Rebind(`
		DELETE FROM tasks_data
		WHERE user_id = ? AND task_id = ?
	`)

	res, err := s.db.ExecContext(ctx, query, userID, taskID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID))
		return false, s.fail("delete", "failed to delete task", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail("delete", "failed to read affected rows", err)
	}

	if n > 0 {
		log.Debug("task deleted",
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID))
	}
	return n > 0, nil
}

// Get implements store.TaskStore.Get.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *TaskStore) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	log := logger.ForComponent(ctx, s.logger, taskStoreComponent)

	query := s.dialect.Rebind(`
		SELECT task_id, user_id, task_description, is_closed
		FROM tasks_data
		WHERE user_id = ? AND task_id = ?
	`)

	var (
		task domain.Task
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID, taskID).Scan(
		&task.ID,
		&task.UserID,
		&desc,
		&task.IsClosed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.Int64("user_id", userID),
				slog.Int64("task_id", taskID))
			return nil, fmt.Errorf("%w: user %d, task %d", store.ErrTaskNotFound, userID, taskID)
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID))
		return nil, s.fail("get", "failed to get task", err)
	}

	if desc.Valid {
		task.Description = &desc.String
	}
	return &task, nil
}
