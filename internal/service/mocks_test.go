package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/phrazzld/tasktracker/internal/domain"
	"github.com/phrazzld/tasktracker/internal/events"
	"github.com/phrazzld/tasktracker/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks the store.TaskStore interface
type MockTaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) CountAll(ctx context.Context, userID int64) (domain.TaskCounters, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.TaskCounters), args.Error(1)
}

func (m *MockTaskStore) CountOpen(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskStore) Insert(ctx context.Context, userID int64, description *string) (int64, error) {
	args := m.Called(ctx, userID, description)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskStore) CloseOldestOpen(ctx context.Context, userID int64) (int64, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockTaskStore) CloseByID(ctx context.Context, userID, taskID int64) (bool, error) {
	args := m.Called(ctx, userID, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) Exists(ctx context.Context, userID, taskID int64) (bool, error) {
	args := m.Called(ctx, userID, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) DeleteByID(ctx context.Context, userID, taskID int64) (bool, error) {
	args := m.Called(ctx, userID, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskStore) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	args := m.Called(ctx, userID, taskID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	args := m.Called(tx)
	return args.Get(0).(store.TaskStore)
}

func (m *MockTaskStore) DB() *sql.DB {
	args := m.Called()
	db, _ := args.Get(0).(*sql.DB)
	return db
}

// recordingEmitter collects emitted events in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	err    error
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func strPtr(s string) *string { return &s }

func descriptions(n int) []*string {
	out := make([]*string, n)
	for i := range out {
		out[i] = strPtr("task")
	}
	return out
}
