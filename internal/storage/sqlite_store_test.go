package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := setupSQLite(t)

	value, err := store.GetItem(context.Background(), "@gomarketplace:products")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, value)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "k", []byte(`[]`)))
	require.NoError(t, store.SetItem(ctx, "k", []byte(`[{"id":"p1"}]`)))

	got, err := store.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1"}]`, string(got))
}

func TestSQLiteStore_Remove(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "k", []byte("v")))
	require.NoError(t, store.RemoveItem(ctx, "k"))
	require.NoError(t, store.RemoveItem(ctx, "never-set"))

	_, err := store.GetItem(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.SetItem(ctx, "k", []byte("persisted")))
	require.NoError(t, first.Close())

	// migrations must be a no-op the second time
	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
