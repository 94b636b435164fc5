package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/phrazzld/tasktracker/internal/platform/sqlstore"
	"github.com/phrazzld/tasktracker/internal/store"
	"github.com/phrazzld/tasktracker/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStore_SQLite(t *testing.T) {
	runTaskStoreContract(t, func(t *testing.T) store.TaskStore {
		db, dialect := testdb.OpenSQLite(t)
		return sqlstore.NewTaskStore(db, dialect, nil)
	})
}

func TestTaskStore_WithTxRollback(t *testing.T) {
	db, dialect := testdb.OpenSQLite(t)
	s := sqlstore.NewTaskStore(db, dialect, nil)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		txStore := s.WithTx(tx)
		assert.Same(t, db, txStore.DB())

		_, err := txStore.Insert(ctx, 1, nil)
		require.NoError(t, err)

		open, err := txStore.CountOpen(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), open)
	})

	open, err := s.CountOpen(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, open, "rolled back insert must not be visible")
}

func TestTaskStore_CommittedTransaction(t *testing.T) {
	db, dialect := testdb.OpenSQLite(t)
	s := sqlstore.NewTaskStore(db, dialect, nil)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, s.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.WithTx(tx)
		if _, err := txStore.Insert(ctx, 7, nil); err != nil {
			return err
		}
		_, _, err := txStore.CloseOldestOpen(ctx, 7)
		return err
	})
	require.NoError(t, err)

	counters, err := s.CountAll(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters.Created)
	assert.Equal(t, int64(1), counters.Closed)
}

func TestNewTaskStore_NilDBPanics(t *testing.T) {
	assert.Panics(t, func() {
		sqlstore.NewTaskStore(nil, sqlstore.SQLite, nil)
	})
}
