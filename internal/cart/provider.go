package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/mobile-cart/internal/storage"
)

var ErrNoProvider = errors.New("cart.Use must be used within a cart Provider")

type ctxKey struct{}

// Provide returns a context that carries s for Use and FromContext.
func Provide(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok && s != nil
}

// Use returns the store carried by ctx. It panics with ErrNoProvider when ctx
// has no store or the store was closed: that is a wiring bug, not a runtime condition.
func Use(ctx context.Context) *Store {
	s, ok := FromContext(ctx)
	if !ok || s.Closed() {
		panic(ErrNoProvider)
	}
	return s
}

// Mount builds a store over kv, hydrates it and provides it on the returned
// context. Dispose of it with Store.Close.
func Mount(ctx context.Context, kv storage.Storage, opts ...Option) (context.Context, *Store, error) {
	s := NewStore(kv, opts...)
	if err := s.Load(ctx); err != nil {
		_ = s.Close(ctx)
		return ctx, nil, err
	}
	return Provide(ctx, s), s, nil
}
