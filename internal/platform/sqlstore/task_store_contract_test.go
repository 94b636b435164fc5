package sqlstore_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/phrazzld/tasktracker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUserID keeps tests that share a database server from seeing each
// other's rows.
func newUserID() int64 {
	return rand.Int64N(1<<40) + 1
}

func strPtr(s string) *string { return &s }

// runTaskStoreContract exercises behavior every store.TaskStore must have.
// newStore must return a store over an empty, migrated schema.
func runTaskStoreContract(t *testing.T, newStore func(t *testing.T) store.TaskStore) {
	t.Run("fresh user has zero counters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		counters, err := s.CountAll(ctx, newUserID())
		require.NoError(t, err)
		assert.Zero(t, counters.Created)
		assert.Zero(t, counters.Closed)

		open, err := s.CountOpen(ctx, newUserID())
		require.NoError(t, err)
		assert.Zero(t, open)
	})

	t.Run("insert creates open task with increasing id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		first, err := s.Insert(ctx, user, strPtr("first"))
		require.NoError(t, err)
		second, err := s.Insert(ctx, user, strPtr("second"))
		require.NoError(t, err)
		assert.Greater(t, second, first)

		counters, err := s.CountAll(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counters.Created)
		assert.Equal(t, int64(0), counters.Closed)

		task, err := s.Get(ctx, user, first)
		require.NoError(t, err)
		assert.Equal(t, first, task.ID)
		assert.Equal(t, user, task.UserID)
		require.NotNil(t, task.Description)
		assert.Equal(t, "first", *task.Description)
		assert.False(t, task.IsClosed)
	})

	t.Run("nil description stored as null", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		id, err := s.Insert(ctx, user, nil)
		require.NoError(t, err)

		task, err := s.Get(ctx, user, id)
		require.NoError(t, err)
		assert.Nil(t, task.Description)

		empty, err := s.Insert(ctx, user, strPtr(""))
		require.NoError(t, err)
		task, err = s.Get(ctx, user, empty)
		require.NoError(t, err)
		require.NotNil(t, task.Description)
		assert.Empty(t, *task.Description)
	})

	t.Run("close oldest open closes smallest open id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		ids := make([]int64, 3)
		for i := range ids {
			id, err := s.Insert(ctx, user, strPtr("task"))
			require.NoError(t, err)
			ids[i] = id
		}

		closedID, closed, err := s.CloseOldestOpen(ctx, user)
		require.NoError(t, err)
		assert.True(t, closed)
		assert.Equal(t, ids[0], closedID)

		task, err := s.Get(ctx, user, ids[0])
		require.NoError(t, err)
		assert.True(t, task.IsClosed)

		task, err = s.Get(ctx, user, ids[1])
		require.NoError(t, err)
		assert.False(t, task.IsClosed)

		closedID, closed, err = s.CloseOldestOpen(ctx, user)
		require.NoError(t, err)
		assert.True(t, closed)
		assert.Equal(t, ids[1], closedID)
		task, err = s.Get(ctx, user, ids[1])
		require.NoError(t, err)
		assert.True(t, task.IsClosed)

		counters, err := s.CountAll(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(3), counters.Created)
		assert.Equal(t, int64(2), counters.Closed)
		assert.Equal(t, int64(1), counters.Open())
	})

	t.Run("close oldest open without open tasks is a no-op", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		closedID, closed, err := s.CloseOldestOpen(ctx, user)
		require.NoError(t, err)
		assert.False(t, closed)
		assert.Zero(t, closedID)

		id, err := s.Insert(ctx, user, nil)
		require.NoError(t, err)
		_, err = s.CloseByID(ctx, user, id)
		require.NoError(t, err)

		_, closed, err = s.CloseOldestOpen(ctx, user)
		require.NoError(t, err)
		assert.False(t, closed)
	})

	t.Run("close oldest open is scoped to user", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		alice, bob := newUserID(), newUserID()

		aliceTask, err := s.Insert(ctx, alice, strPtr("a"))
		require.NoError(t, err)
		_, err = s.Insert(ctx, bob, strPtr("b"))
		require.NoError(t, err)

		_, closed, err := s.CloseOldestOpen(ctx, bob)
		require.NoError(t, err)
		assert.True(t, closed)

		task, err := s.Get(ctx, alice, aliceTask)
		require.NoError(t, err)
		assert.False(t, task.IsClosed)
	})

	t.Run("close by id is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		id, err := s.Insert(ctx, user, strPtr("task"))
		require.NoError(t, err)

		matched, err := s.CloseByID(ctx, user, id)
		require.NoError(t, err)
		assert.True(t, matched)

		matched, err = s.CloseByID(ctx, user, id)
		require.NoError(t, err)
		assert.True(t, matched, "closing a closed task still matches")

		counters, err := s.CountAll(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counters.Closed)
	})

	t.Run("close by id of unknown or foreign task matches nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		owner, other := newUserID(), newUserID()

		id, err := s.Insert(ctx, owner, strPtr("task"))
		require.NoError(t, err)

		matched, err := s.CloseByID(ctx, other, id)
		require.NoError(t, err)
		assert.False(t, matched)

		matched, err = s.CloseByID(ctx, owner, id+1_000_000)
		require.NoError(t, err)
		assert.False(t, matched)

		task, err := s.Get(ctx, owner, id)
		require.NoError(t, err)
		assert.False(t, task.IsClosed)
	})

	t.Run("exists and delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		id, err := s.Insert(ctx, user, strPtr("task"))
		require.NoError(t, err)

		exists, err := s.Exists(ctx, user, id)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.Exists(ctx, newUserID(), id)
		require.NoError(t, err)
		assert.False(t, exists)

		deleted, err := s.DeleteByID(ctx, user, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.DeleteByID(ctx, user, id)
		require.NoError(t, err)
		assert.False(t, deleted)

		exists, err = s.Exists(ctx, user, id)
		require.NoError(t, err)
		assert.False(t, exists)

		counters, err := s.CountAll(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, counters.Created)
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := newUserID()

		id, err := s.Insert(ctx, user, nil)
		require.NoError(t, err)
		_, err = s.DeleteByID(ctx, user, id)
		require.NoError(t, err)

		next, err := s.Insert(ctx, user, nil)
		require.NoError(t, err)
		assert.Greater(t, next, id)
	})

	t.Run("get unknown task returns not found", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(context.Background(), newUserID(), 42)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})
}
