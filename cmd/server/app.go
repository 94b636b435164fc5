package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/events"
	"github.com/phrazzld/tasktracker/internal/platform/sqlstore"
	"github.com/phrazzld/tasktracker/internal/service"
	"github.com/phrazzld/tasktracker/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore    store.TaskStore
	eventEmitter *events.InMemoryEventEmitter
	admission    *service.AdmissionPolicy
	taskService  service.TaskService
}

// newApplication wires stores, services and event handlers over an open database.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, dialect sqlstore.Dialect) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = sqlstore.NewTaskStore(db, dialect, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditLogHandler(logger))

	var err error
	app.admission, err = service.NewAdmissionPolicy(app.taskStore, app.eventEmitter, cfg.Tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create admission policy: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.admission,
		app.eventEmitter,
		cfg.Tasks.StrictClose,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("task service initialized",
		slog.Int64("max_open", app.admission.MaxOpen()),
		slog.Int("max_batch_size", app.admission.MaxBatchSize()),
		slog.Bool("strict_close", cfg.Tasks.StrictClose))

	return app, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		} else {
			app.logger.Info("database connection closed")
		}
	}
}
