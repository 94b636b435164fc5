package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// IsIntegrationTestEnvironment returns true if the DATABASE_URL environment
// variable is set, indicating that integration tests can be run.
func IsIntegrationTestEnvironment() bool {
	return len(os.Getenv("DATABASE_URL")) > 0
}

// DriverFromEnv returns DATABASE_DRIVER, defaulting to postgres.
func DriverFromEnv() string {
	if d := os.Getenv("DATABASE_DRIVER"); d != "" {
		return d
	}
	return config.DriverPostgres
}

// OpenSQLite creates a migrated SQLite database in a temporary directory.
// The database is closed when the test ends.
func OpenSQLite(t *testing.T) (*sql.DB, sqlstore.Dialect) {
	t.Helper()

	return open(t, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "tasks.db"),
	})
}

// OpenFromEnv connects to the database named by DATABASE_DRIVER and
// DATABASE_URL and applies migrations. It skips the test if DATABASE_URL
// is not set.
func OpenFromEnv(t *testing.T) (*sql.DB, sqlstore.Dialect) {
	t.Helper()

	if !IsIntegrationTestEnvironment() {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	return open(t, config.DatabaseConfig{
		Driver:       DriverFromEnv(),
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
}

func open(t *testing.T, cfg config.DatabaseConfig) (*sql.DB, sqlstore.Dialect) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, dialect, err := sqlstore.Open(ctx, cfg)
	require.NoError(t, err, "Failed to open test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	require.NoError(t, sqlstore.Migrate(ctx, db, dialect, sqlstore.MigrateUp), "Failed to run migrations")
	return db, dialect
}

// WithTx runs fn inside a transaction that is rolled back afterwards.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if tx is already committed or rolled back
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
