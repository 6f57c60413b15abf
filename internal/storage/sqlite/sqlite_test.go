package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readtrack/internal/storage"
)

var _ storage.Storage = (*SQLiteDB)(nil)

// setupTestDB opens a migrated database in a temporary directory
func setupTestDB(t *testing.T) (*SQLiteDB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "readtrack.db")
	db, err := NewSQLiteDB(path)
	require.NoError(t, err, "Failed to open SQLite database")
	require.NoError(t, db.Initialize(context.Background()), "Failed to run migrations")

	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestSQLiteDB_SetGet(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	_, ok, err := db.Get(ctx, storage.KeyBooks)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Set(ctx, storage.KeyBooks, `[]`))
	require.NoError(t, db.Set(ctx, storage.KeyBooks, `[{"id":"x"}]`))

	value, ok, err := db.Get(ctx, storage.KeyBooks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"x"}]`, value)
}

func TestSQLiteDB_Remove(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, storage.KeyDailyGoal, "5"))
	require.NoError(t, db.Remove(ctx, storage.KeyDailyGoal))
	require.NoError(t, db.Remove(ctx, storage.KeyDailyGoal))

	_, ok, err := db.Get(ctx, storage.KeyDailyGoal)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteDB_PersistsAcrossReopen(t *testing.T) {
	db, path := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, storage.KeyDailyProgress, `{"2024-01-01":{"count":1,"chapters":["a-1"]}}`))
	require.NoError(t, db.Close())

	reopened, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer reopened.Close()

	// Migrations are idempotent
	require.NoError(t, reopened.Initialize(ctx))

	value, ok, err := reopened.Get(ctx, storage.KeyDailyProgress)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, value, "a-1")
}
