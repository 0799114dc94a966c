package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) *MongoStore {
	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := OpenMongoStore(ctx, uri, "testdb")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMongoStore_RoundTrip(t *testing.T) {
	store := setupTestMongo(t)
	ctx := context.Background()

	_, err := store.GetItem(ctx, "@gomarketplace:products")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetItem(ctx, "@gomarketplace:products", []byte(`[]`)))
	require.NoError(t, store.SetItem(ctx, "@gomarketplace:products", []byte(`[{"id":"p1"}]`)))

	got, err := store.GetItem(ctx, "@gomarketplace:products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1"}]`, string(got))

	require.NoError(t, store.RemoveItem(ctx, "@gomarketplace:products"))
	require.NoError(t, store.RemoveItem(ctx, "@gomarketplace:products"))

	_, err = store.GetItem(ctx, "@gomarketplace:products")
	assert.ErrorIs(t, err, ErrNotFound)
}
