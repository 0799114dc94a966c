package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts a miniredis server and returns a RedisStore pointing at it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	store := NewRedisStore(client)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupTestRedis(t)

	value, err := store.GetItem(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, value)
}

func TestRedisStore_SetWithoutTTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "@gomarketplace:products", []byte(`[]`)))

	stored, err := mr.Get(redisKey("@gomarketplace:products"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, stored)
	assert.Zero(t, mr.TTL(redisKey("@gomarketplace:products")), "persisted cart must not expire")
}

func TestRedisStore_GetReadsRawValue(t *testing.T) {
	store, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(redisKey("k"), `[{"id":"p1"}]`))

	got, err := store.GetItem(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"p1"}]`, string(got))
}

func TestRedisStore_Remove(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists(redisKey("k")))

	require.NoError(t, store.RemoveItem(ctx, "k"))
	assert.False(t, mr.Exists(redisKey("k")))

	assert.NoError(t, store.RemoveItem(ctx, "nonexistent"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.GetItem(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestRedisKey_Format(t *testing.T) {
	assert.Equal(t, "kv:@gomarketplace:products", redisKey("@gomarketplace:products"))
}
