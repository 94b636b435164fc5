package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migration commands understood by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateReset   = "reset"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// MigrationStatus describes one embedded migration and whether it is applied.
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

// Migrator applies the embedded schema for one dialect.
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// NewMigrator prepares a goose provider over the dialect's embedded migrations.
func NewMigrator(db *sql.DB, dialect Dialect, l *slog.Logger) (*Migrator, error) {
	if l == nil {
		l = slog.Default()
	}

	fsys, err := fs.Sub(migrationsFS, dialect.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to locate migrations for %s: %w", dialect.Name, err)
	}

	provider, err := goose.NewProvider(dialect.Goose, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Migrator{
		provider: provider,
		logger:   l.With(slog.String("component", "migrations"), slog.String("dialect", dialect.Name)),
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		m.logger.Error("failed to apply migrations", slog.String("error", err.Error()))
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		m.logger.Info("migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Int64("duration_ms", r.Duration.Milliseconds()))
	}
	if len(results) == 0 {
		m.logger.Debug("schema already up to date")
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	m.logger.Info("migration rolled back", slog.Int64("version", r.Source.Version))
	return nil
}

// Reset rolls back every applied migration.
func (m *Migrator) Reset(ctx context.Context) error {
	results, err := m.provider.DownTo(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	m.logger.Info("migrations reset", slog.Int("rolled_back", len(results)))
	return nil
}

// Version returns the current schema version, 0 when nothing is applied.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Status lists every embedded migration in version order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Migrate opens a migrator for dialect and runs command against db.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, command string) error {
	m, err := NewMigrator(db, dialect, logger.FromContext(ctx))
	if err != nil {
		return err
	}

	switch command {
	case MigrateUp:
		return m.Up(ctx)
	case MigrateDown:
		return m.Down(ctx)
	case MigrateReset:
		return m.Reset(ctx)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
