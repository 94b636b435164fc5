package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktracker/internal/domain"
	"github.com/phrazzld/tasktracker/internal/events"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/phrazzld/tasktracker/internal/store"
)

// TaskService provides task-related operations
type TaskService interface {
	// AddTasks admits a batch of tasks for the user, evicting the oldest open
	// task whenever the open-task ceiling would be exceeded.
	AddTasks(ctx context.Context, userID int64, descriptions []*string) error

	// Counters returns how many tasks the user has created and closed.
	Counters(ctx context.Context, userID int64) (domain.TaskCounters, error)

	// InProgress returns the number of open tasks.
	InProgress(ctx context.Context, userID int64) (int64, error)

	// CloseTask marks the task closed. Closing an unknown task succeeds
	// unless strict close is enabled, in which case it returns ErrTaskNotFound.
	CloseTask(ctx context.Context, userID, taskID int64) error

	// DeleteTask permanently removes the task.
	// Returns ErrTaskNotFound if the (user, task) pair does not exist.
	DeleteTask(ctx context.Context, userID, taskID int64) error

	// MaxBatchSize returns the largest batch AddTasks accepts.
	MaxBatchSize() int
}

const taskServiceComponent = "task_service"

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	store       store.TaskStore
	admission   *AdmissionPolicy
	emitter     events.EventEmitter
	strictClose bool
	logger      *slog.Logger
}

// NewTaskService creates a TaskService. emitter may be nil.
func NewTaskService(
	taskStore store.TaskStore,
	admission *AdmissionPolicy,
	emitter events.EventEmitter,
	strictClose bool,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if admission == nil {
		return nil, fmt.Errorf("admission policy cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		store:       taskStore,
		admission:   admission,
		emitter:     emitter,
		strictClose: strictClose,
		logger:      logger,
	}, nil
}

// AddTasks implements TaskService.AddTasks
func (s *taskServiceImpl) AddTasks(ctx context.Context, userID int64, descriptions []*string) error {
	return s.admission.AddBatch(ctx, userID, descriptions)
}

// MaxBatchSize implements TaskService.MaxBatchSize
func (s *taskServiceImpl) MaxBatchSize() int {
	return s.admission.MaxBatchSize()
}

// Counters implements TaskService.Counters
func (s *taskServiceImpl) Counters(ctx context.Context, userID int64) (domain.TaskCounters, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return domain.TaskCounters{}, err
	}

	counters, err := s.store.CountAll(ctx, userID)
	if err != nil {
		return domain.TaskCounters{}, NewTaskServiceError("counters", "failed to count tasks", err)
	}
	return counters, nil
}

// InProgress implements TaskService.InProgress
func (s *taskServiceImpl) InProgress(ctx context.Context, userID int64) (int64, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return 0, err
	}

	open, err := s.store.CountOpen(ctx, userID)
	if err != nil {
		return 0, NewTaskServiceError("in_progress", "failed to count open tasks", err)
	}
	return open, nil
}

// CloseTask implements TaskService.CloseTask
func (s *taskServiceImpl) CloseTask(ctx context.Context, userID, taskID int64) error {
	log := logger.ForComponent(ctx, s.logger, taskServiceComponent)

	if err := validatePair(userID, taskID); err != nil {
		return err
	}

	matched, err := s.store.CloseByID(ctx, userID, taskID)
	if err != nil {
		return NewTaskServiceError("close_task", "failed to close task", err)
	}

	if !matched {
		log.Debug("close matched no task",
			slog.Int64("user_id", userID),
			slog.Int64("task_id", taskID),
			slog.Bool("strict", s.strictClose))
		if s.strictClose {
			return ErrTaskNotFound
		}
		return nil
	}

	emit(ctx, s.emitter, log, events.NewTaskEvent(events.TypeTaskClosed, userID, taskID))
	return nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID, taskID int64) error {
	log := logger.ForComponent(ctx, s.logger, taskServiceComponent)

	if err := validatePair(userID, taskID); err != nil {
		return err
	}

	exists, err := s.store.Exists(ctx, userID, taskID)
	if err != nil {
		return NewTaskServiceError("delete_task", "failed to look up task", err)
	}
	if !exists {
		return ErrTaskNotFound
	}

	// The row can disappear between the check and the delete.
	deleted, err := s.store.DeleteByID(ctx, userID, taskID)
	if err != nil {
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}

	log.Info("task deleted",
		slog.Int64("user_id", userID),
		slog.Int64("task_id", taskID))
	emit(ctx, s.emitter, log, events.NewTaskEvent(events.TypeTaskDeleted, userID, taskID))
	return nil
}

func validatePair(userID, taskID int64) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	return domain.ValidateTaskID(taskID)
}
