package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/platform/sqlstore"
)

// setupAppDatabase opens the configured database and, when auto_migrate is
// set, brings the schema up to date.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, sqlstore.Dialect, error) {
	db, dialect, err := sqlstore.Open(ctx, cfg)
	if err != nil {
		return nil, sqlstore.Dialect{}, fmt.Errorf("failed to set up database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := sqlstore.Migrate(ctx, db, dialect, sqlstore.MigrateUp); err != nil {
			_ = db.Close()
			return nil, sqlstore.Dialect{}, err
		}
	}

	return db, dialect, nil
}
