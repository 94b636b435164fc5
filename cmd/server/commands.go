package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/phrazzld/tasktracker/internal/platform/logger"
	"github.com/phrazzld/tasktracker/internal/platform/sqlstore"
	"github.com/urfave/cli/v3"
)

// newRootCommand returns the top-level CLI command. Without a subcommand it
// serves HTTP.
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasktracker",
		Usage: "Per-user task tracker HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: ./config.yaml if present)",
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			newServeCommand(),
			newMigrateCommand(os.Stdout),
		},
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP server",
		Action: runServe,
	}
}

// newMigrateCommand returns the migrate subcommand; status output goes to out.
func newMigrateCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  sqlstore.MigrateUp,
				Usage: "Apply all pending migrations",
				Action: withMigrator(func(ctx context.Context, m *sqlstore.Migrator) error {
					return m.Up(ctx)
				}),
			},
			{
				Name:  sqlstore.MigrateDown,
				Usage: "Roll back the most recent migration",
				Action: withMigrator(func(ctx context.Context, m *sqlstore.Migrator) error {
					return m.Down(ctx)
				}),
			},
			{
				Name:  sqlstore.MigrateReset,
				Usage: "Roll back all migrations",
				Action: withMigrator(func(ctx context.Context, m *sqlstore.Migrator) error {
					return m.Reset(ctx)
				}),
			},
			{
				Name:  sqlstore.MigrateStatus,
				Usage: "List migrations and whether they are applied",
				Action: withMigrator(func(ctx context.Context, m *sqlstore.Migrator) error {
					statuses, err := m.Status(ctx)
					if err != nil {
						return err
					}
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Fprintf(out, "%05d  %-8s %s\n", s.Version, state, s.Path)
					}
					return nil
				}),
			},
			{
				Name:  sqlstore.MigrateVersion,
				Usage: "Print the current schema version",
				Action: withMigrator(func(ctx context.Context, m *sqlstore.Migrator) error {
					v, err := m.Version(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, v)
					return nil
				}),
			},
		},
	}
}

// loadConfig loads configuration and installs the configured logger.
func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, l, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, l, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("consistency", cfg.Tasks.Consistency))

	ctx = logger.WithLogger(ctx, l)

	db, dialect, err := setupAppDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, l, db, dialect)
	if err != nil {
		_ = db.Close()
		return err
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

func withMigrator(fn func(context.Context, *sqlstore.Migrator) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, l, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx = logger.WithLogger(ctx, l)

		db, dialect, err := sqlstore.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := sqlstore.NewMigrator(db, dialect, l)
		if err != nil {
			return err
		}
		return fn(ctx, m)
	}
}
