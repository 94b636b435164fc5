package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/domain"
	"github.com/phrazzld/tasktracker/internal/events"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/phrazzld/tasktracker/internal/store"
)

const admissionComponent = "admission_policy"

// AdmissionPolicy adds batches of tasks while keeping each user at or below
// the open-task ceiling. Before every insert that would exceed the ceiling,
// the user's oldest open task is closed.
type AdmissionPolicy struct {
	store       store.TaskStore
	emitter     events.EventEmitter
	locks       *userLocks
	maxOpen     int64
	maxBatch    int
	consistency string
	logger      *slog.Logger
}

// NewAdmissionPolicy creates a policy from the task settings. Zero limits fall
// back to the domain defaults and an empty consistency level means weak.
// emitter may be nil.
func NewAdmissionPolicy(
	taskStore store.TaskStore,
	emitter events.EventEmitter,
	cfg config.TasksConfig,
	logger *slog.Logger,
) (*AdmissionPolicy, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxOpen := int64(cfg.MaxOpen)
	if maxOpen <= 0 {
		maxOpen = domain.DefaultMaxOpenTasks
	}
	maxBatch := cfg.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = domain.DefaultMaxBatchSize
	}

	consistency := cfg.Consistency
	switch consistency {
	case "":
		consistency = config.ConsistencyWeak
	case config.ConsistencyWeak, config.ConsistencySerialized:
	default:
		return nil, fmt.Errorf("unknown consistency level %q", consistency)
	}

	return &AdmissionPolicy{
		store:       taskStore,
		emitter:     emitter,
		locks:       newUserLocks(),
		maxOpen:     maxOpen,
		maxBatch:    maxBatch,
		consistency: consistency,
		logger:      logger,
	}, nil
}

// MaxBatchSize returns the largest batch AddBatch accepts.
func (p *AdmissionPolicy) MaxBatchSize() int {
	return p.maxBatch
}

// MaxOpen returns the open-task ceiling.
func (p *AdmissionPolicy) MaxOpen() int64 {
	return p.maxOpen
}

// admission is the outcome of admitting one task.
type admission struct {
	taskID    int64
	evictedID int64
	evicted   bool
}

// AddBatch inserts descriptions for userID in order. A nil description is
// stored as NULL.
//
// The batch size is checked before the store is touched. Each item is
// committed before the next one starts, so an error partway through leaves
// the earlier items in place.
func (p *AdmissionPolicy) AddBatch(ctx context.Context, userID int64, descriptions []*string) error {
	log := logger.ForComponent(ctx, p.logger, admissionComponent)

	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	if err := domain.ValidateBatchSize(len(descriptions), p.maxBatch); err != nil {
		log.Debug("batch rejected",
			slog.Int64("user_id", userID),
			slog.Int("batch_size", len(descriptions)))
		return err
	}

	if p.consistency == config.ConsistencySerialized {
		unlock := p.locks.lock(userID)
		defer unlock()
	}

	for i, desc := range descriptions {
		result, err := p.admitItem(ctx, userID, desc)
		if err != nil {
			log.Error("failed to admit task",
				slog.String("error", err.Error()),
				slog.Int64("user_id", userID),
				slog.Int("failed_item", i+1),
				slog.Int("committed", i))
			return NewTaskServiceError("add_tasks",
				fmt.Sprintf("failed to add task %d of %d", i+1, len(descriptions)), err)
		}

		if result.evicted {
			emit(ctx, p.emitter, log, events.NewTaskEvent(events.TypeTaskEvicted, userID, result.evictedID))
		}
		emit(ctx, p.emitter, log, events.NewTaskEvent(events.TypeTaskCreated, userID, result.taskID))
	}

	log.Info("tasks added",
		slog.Int64("user_id", userID),
		slog.Int("count", len(descriptions)))
	return nil
}

func (p *AdmissionPolicy) admitItem(ctx context.Context, userID int64, desc *string) (admission, error) {
	if p.consistency != config.ConsistencySerialized {
		return p.admit(ctx, p.store, userID, desc)
	}

	var result admission
	err := store.RunInTransaction(ctx, p.store.DB(), func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = p.admit(ctx, p.store.WithTx(tx), userID, desc)
		return err
	})
	return result, err
}

// admit runs count, conditional eviction and insert against s.
func (p *AdmissionPolicy) admit(ctx context.Context, s store.TaskStore, userID int64, desc *string) (admission, error) {
	open, err := s.CountOpen(ctx, userID)
	if err != nil {
		return admission{}, err
	}

	var result admission
	if open >= p.maxOpen {
		// A concurrent request may have closed the oldest task first; the
		// insert goes ahead either way.
		result.evictedID, result.evicted, err = s.CloseOldestOpen(ctx, userID)
		if err != nil {
			return admission{}, err
		}
	}

	result.taskID, err = s.Insert(ctx, userID, desc)
	if err != nil {
		return admission{}, err
	}
	return result, nil
}

// emit publishes event if an emitter is configured. Delivery failures are
// logged; the change the event describes is already committed.
func emit(ctx context.Context, emitter events.EventEmitter, log *slog.Logger, event *events.TaskEvent) {
	if emitter == nil {
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit task event",
			slog.String("error", err.Error()),
			slog.String("event_type", event.Type),
			slog.Int64("user_id", event.UserID))
	}
}
