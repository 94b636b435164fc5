package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/phrazzld/tasktracker/internal/redact"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// sqliteBusyTimeout makes concurrent writers wait for the file lock instead
// of failing with SQLITE_BUSY.
const sqliteBusyTimeout = "_pragma=busy_timeout(5000)"

// Open connects to the configured database, applies pool limits and verifies
// connectivity. The caller owns the returned pool and must Close it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	log := logger.FromContext(ctx).With(slog.String("component", "database"))

	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn, err := dataSourceName(dialect, cfg.URL)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to open database connection: %w", err)
	}

	configurePool(db, dialect, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established",
		slog.String("driver", dialect.Name),
		slog.String("url", redact.DSN(cfg.URL)))
	return db, dialect, nil
}

// dataSourceName adapts the configured URL to what the dialect's driver expects.
func dataSourceName(dialect Dialect, url string) (string, error) {
	switch dialect.Name {
	case config.DriverSQLite:
		if strings.Contains(url, "_pragma=busy_timeout") {
			return url, nil
		}
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		return url + sep + sqliteBusyTimeout, nil

	case config.DriverMySQL:
		mcfg, err := mysql.ParseDSN(url)
		if err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		// CloseByID reports matched rows, not changed rows, so closing an
		// already closed task still counts as a match.
		mcfg.ClientFoundRows = true
		mcfg.ParseTime = true
		return mcfg.FormatDSN(), nil

	default:
		return url, nil
	}
}

func configurePool(db *sql.DB, dialect Dialect, cfg config.DatabaseConfig) {
	if dialect.Name == config.DriverSQLite {
		// SQLite serializes writers anyway; a single connection avoids
		// lock contention between pooled connections.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
}
