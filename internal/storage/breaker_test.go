package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"gotest.tools/v3/assert"
)

type flakyStorage struct {
	*MemoryStore
	err   error
	calls int
}

func (f *flakyStorage) SetItem(ctx context.Context, key string, value []byte) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.SetItem(ctx, key, value)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	backend := &flakyStorage{MemoryStore: NewMemoryStore(), err: errors.New("connection refused")}
	b := NewBreaker("test", backend, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()

	assert.ErrorContains(t, b.SetItem(ctx, "k", nil), "connection refused")
	assert.ErrorContains(t, b.SetItem(ctx, "k", nil), "connection refused")
	assert.Equal(t, b.State(), gobreaker.StateOpen)

	err := b.SetItem(ctx, "k", nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, backend.calls, 2, "open breaker must not reach the backend")
}

func TestBreaker_MissesDoNotTrip(t *testing.T) {
	b := NewBreaker("test", NewMemoryStore(), BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.GetItem(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, b.State(), gobreaker.StateClosed)
}

func TestBreaker_PassesThrough(t *testing.T) {
	b := NewBreaker("test", NewMemoryStore(), DefaultBreakerSettings(), nil)
	ctx := context.Background()

	assert.NilError(t, b.SetItem(ctx, "k", []byte("v")))
	got, err := b.GetItem(ctx, "k")
	assert.NilError(t, err)
	assert.Equal(t, string(got), "v")

	assert.NilError(t, b.RemoveItem(ctx, "k"))
	_, err = b.GetItem(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NilError(t, b.Close())
}
