package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/tasktracker/internal/config"
	"github.com/pressly/goose/v3"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	// Name is the configuration name (config.DriverSQLite, ...).
	Name string
	// DriverName is the database/sql driver the dialect opens.
	DriverName string
	// Goose is the goose dialect used for migrations.
	Goose goose.Dialect
	// MigrationsDir is the embedded directory holding the dialect's schema.
	MigrationsDir string

	dollarPlaceholders bool
	supportsReturning  bool
	// closeOldestOpenSQL closes and returns the oldest open task when the
	// dialect supports RETURNING, and only selects it for update otherwise.
	closeOldestOpenSQL string
}

// closeOldestOpenReturning works on engines that allow a subquery on the
// table being updated and support RETURNING. The outer is_closed guard makes
// a concurrent duplicate match no row.
const closeOldestOpenReturning = `
	UPDATE tasks_data
	SET is_closed = TRUE
	WHERE is_closed = FALSE
	  AND task_id = (
		SELECT task_id FROM tasks_data
		WHERE user_id = ? AND is_closed = FALSE
		ORDER BY task_id ASC
		LIMIT 1
	  )
	RETURNING task_id
`

var (
	// SQLite is the default, file-backed dialect.
	SQLite = Dialect{
		Name:               config.DriverSQLite,
		DriverName:         "sqlite",
		Goose:              goose.DialectSQLite3,
		MigrationsDir:      "migrations/sqlite",
		supportsReturning:  true,
		closeOldestOpenSQL: closeOldestOpenReturning,
	}

	// Postgres uses the pgx stdlib driver.
	Postgres = Dialect{
		Name:               config.DriverPostgres,
		DriverName:         "pgx",
		Goose:              goose.DialectPostgres,
		MigrationsDir:      "migrations/postgres",
		dollarPlaceholders: true,
		supportsReturning:  true,
		closeOldestOpenSQL: closeOldestOpenReturning,
	}

	// MySQL has neither RETURNING nor subqueries on the updated table, so
	// the oldest open row is locked with SELECT ... FOR UPDATE and closed by ID.
	MySQL = Dialect{
		Name:          config.DriverMySQL,
		DriverName:    "mysql",
		Goose:         goose.DialectMySQL,
		MigrationsDir: "migrations/mysql",
		closeOldestOpenSQL: `
			SELECT task_id FROM tasks_data
			WHERE user_id = ? AND is_closed = FALSE
			ORDER BY task_id ASC
			LIMIT 1
			FOR UPDATE
		`,
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case config.DriverSQLite:
		return SQLite, nil
	case config.DriverPostgres:
		return Postgres, nil
	case config.DriverMySQL:
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Rebind rewrites '?' placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if !d.dollarPlaceholders {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
