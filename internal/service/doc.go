// Package service holds the task tracker's use cases.
//
// AdmissionPolicy enforces the per-user open-task ceiling while adding
// batches; TaskService exposes the operations the HTTP layer calls. Both
// depend only on the store.TaskStore interface and emit lifecycle events
// after their changes are committed.
package service
