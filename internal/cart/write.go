package cart

import (
	"context"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

// Write tracks one persistence of the cart. Callers that do not care can drop it.
// When a newer mutation supersedes a write before it reaches storage, the
// write completes with the result of the newer one.
type Write struct {
	done  chan struct{}
	err   error
	items []domain.CartItem
}

func newWrite(items []domain.CartItem) *Write {
	return &Write{
		done:  make(chan struct{}),
		items: items,
	}
}

func failedWrite(err error) *Write {
	w := newWrite(nil)
	w.finish(err)
	return w
}

func (w *Write) finish(err error) {
	w.err = err
	close(w.done)
}

// Done is closed once the write has been attempted.
func (w *Write) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the write finished or ctx is done.
func (w *Write) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err is nil while the write is pending.
func (w *Write) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Items returns the snapshot this mutation asked to persist.
func (w *Write) Items() []domain.CartItem {
	return domain.Clone(w.items)
}
