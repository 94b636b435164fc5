package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasktracker/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Driver error codes
const (
	pgUniqueViolationCode   = "23505"
	pgCheckViolationCode    = "23514"
	pgNotNullViolationCode  = "23502"
	mysqlDuplicateEntry     = 1062
	mysqlColumnCannotBeNull = 1048
	mysqlCheckViolated      = 3819
)

// MapError maps a driver error to the store's error vocabulary while keeping
// the original error in the chain for diagnostics.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case pgCheckViolationCode, pgNotNullViolationCode:
			return fmt.Errorf("%w: %s: %v", store.ErrInvalidEntity, pgErr.ConstraintName, err)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case mysqlColumnCannotBeNull, mysqlCheckViolated:
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL, sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}
