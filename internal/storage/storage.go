package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Storage is a key-value facility that outlives the process.
// Implementations must be safe for concurrent use.
type Storage interface {
	// GetItem returns ErrNotFound when nothing is stored under key.
	GetItem(ctx context.Context, key string) ([]byte, error)

	// SetItem replaces the value stored under key.
	SetItem(ctx context.Context, key string, value []byte) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error

	Close() error
}
