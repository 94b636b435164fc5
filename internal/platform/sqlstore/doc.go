// Package sqlstore provides the database/sql implementation of store.TaskStore.
//
// One implementation serves PostgreSQL (pgx), SQLite (modernc.org/sqlite) and
// MySQL (go-sql-driver/mysql). Queries are written once with '?' placeholders
// and adapted per Dialect; the few statements whose syntax differs between
// engines are carried on the Dialect itself. The schema is versioned with
// goose and embedded into the binary.
package sqlstore
