package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/fjod/go_cart/mobile-cart/internal/logger"
	"github.com/fjod/go_cart/mobile-cart/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var ErrClosed = errors.New("cart store is closed")

// loadAttempts bounds how often Load re-reads when mutations keep landing
// while it waits on storage.
const loadAttempts = 3

type writeJob struct {
	ctx     context.Context
	op      string
	data    []byte
	remove  bool
	items   int
	waiters []*Write
}

// Store holds the cart in memory and mirrors it to storage after every mutation.
// Every write carries the whole cart, so a single writer goroutine only ever
// persists the newest pending snapshot: the last mutation is always the last
// thing persisted and mutations never wait on storage.
type Store struct {
	id   string
	kv   storage.Storage
	opts options
	log  *logrus.Entry

	mu      sync.Mutex
	items   []domain.CartItem
	closed  bool
	last    *Write
	seq     uint64
	pending *writeJob
	wake    chan struct{}
	subs    map[int]func([]domain.CartItem)
	nextSub int

	sfg singleflight.Group
	wg  sync.WaitGroup
}

// NewStore returns an empty cart backed by kv. Call Load to hydrate it and
// Close to stop the writer. The store does not own kv.
func NewStore(kv storage.Storage, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	s := &Store{
		id:    id,
		kv:    kv,
		opts:  o,
		log:   o.log.WithFields(logrus.Fields{"store_id": id, "key": o.key}),
		items: []domain.CartItem{},
		wake:  make(chan struct{}, 1),
		subs:  make(map[int]func([]domain.CartItem)),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Store) ID() string {
	return s.id
}

// Load replaces the in-memory cart with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	_, err, _ := s.sfg.Do("load", func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *Store) load(ctx context.Context) error {
	ctx, span := s.opts.tracer.Start(ctx, "cart.Load")
	defer span.End()
	log := logger.FromContext(ctx, s.log)

	for attempt := 1; ; attempt++ {
		s.mu.Lock()
		closed, pending, seq := s.closed, s.last, s.seq
		s.mu.Unlock()
		if closed {
			return ErrClosed
		}

		// our own pending write has to land before we read it back
		if pending != nil {
			select {
			case <-pending.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		items, err := s.read(ctx)
		if err != nil {
			if ctx.Err() != nil || s.opts.load == LoadStrict {
				span.RecordError(err)
				span.SetStatus(codes.Error, "load failed")
				return err
			}
			log.WithError(err).Warn("could not restore persisted cart, starting empty")
			items = []domain.CartItem{}
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.seq != seq {
			// a mutation landed after the read; its write is newer than items
			s.mu.Unlock()
			if attempt < loadAttempts {
				continue
			}
			span.SetAttributes(attribute.Bool("cart.kept_memory", true))
			log.Debug("cart kept changing during load, keeping in-memory state")
			return nil
		}
		s.items = items
		subs := s.subscribersLocked()
		s.mu.Unlock()

		s.notify(subs, items)
		span.SetAttributes(
			attribute.Int("cart.items", len(items)),
			attribute.Int("cart.load_attempts", attempt),
		)
		log.WithField("items", len(items)).Debug("cart loaded")
		return nil
	}
}

func (s *Store) read(ctx context.Context) ([]domain.CartItem, error) {
	data, err := s.kv.GetItem(ctx, s.opts.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	return decodeItems(data)
}

// AddToCart bumps the quantity of an existing item (overwriting its other
// fields with p) or appends p with quantity 1.
func (s *Store) AddToCart(ctx context.Context, p domain.Product) *Write {
	if err := p.Validate(); err != nil {
		return failedWrite(err)
	}
	return s.mutate(ctx, "add", func(cur []domain.CartItem) ([]domain.CartItem, []domain.CartItem) {
		next := domain.AddProduct(cur, p)
		if s.opts.addWrite == PersistPreMutation {
			return next, cur
		}
		return next, next
	})
}

// Increment persists even when id is not in the cart.
func (s *Store) Increment(ctx context.Context, id string) *Write {
	return s.mutate(ctx, "increment", func(cur []domain.CartItem) ([]domain.CartItem, []domain.CartItem) {
		next := domain.Increment(cur, id)
		return next, next
	})
}

// Decrement applies the configured DecrementPolicy and persists even when id
// is not in the cart.
func (s *Store) Decrement(ctx context.Context, id string) *Write {
	return s.mutate(ctx, "decrement", func(cur []domain.CartItem) ([]domain.CartItem, []domain.CartItem) {
		next := domain.Decrement(cur, id, s.opts.decrement)
		return next, next
	})
}

func (s *Store) mutate(ctx context.Context, op string, fn func(cur []domain.CartItem) (next, persist []domain.CartItem)) *Write {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return failedWrite(ErrClosed)
	}

	next, persist := fn(s.items)
	data, err := encodeItems(persist)
	if err != nil {
		s.mu.Unlock()
		return failedWrite(err)
	}

	return s.commitLocked(ctx, writeJob{op: op, data: data}, next, persist)
}

// Clear empties the cart and removes the persisted key instead of writing an
// empty list.
func (s *Store) Clear(ctx context.Context) *Write {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return failedWrite(ErrClosed)
	}
	return s.commitLocked(ctx, writeJob{op: "clear", remove: true}, []domain.CartItem{}, nil)
}

// commitLocked installs next as the cart, hands job to the writer and unlocks s.mu.
func (s *Store) commitLocked(ctx context.Context, job writeJob, next, persist []domain.CartItem) *Write {
	s.items = next
	s.seq++
	w := newWrite(persist)
	s.last = w

	job.ctx = context.WithoutCancel(ctx)
	job.items = len(persist)
	job.waiters = []*Write{w}
	s.enqueueLocked(job)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(subs, next)
	return w
}

// enqueueLocked replaces the snapshot the writer has not picked up yet. Writes
// it replaces complete with the result of the one that superseded them.
func (s *Store) enqueueLocked(job writeJob) {
	if s.pending != nil {
		job.waiters = append(s.pending.waiters, job.waiters...)
	}
	s.pending = &job
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) takePending() *writeJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.pending
	s.pending = nil
	return job
}

func (s *Store) run() {
	defer s.wg.Done()
	for range s.wake {
		for job := s.takePending(); job != nil; job = s.takePending() {
			s.persist(*job)
		}
	}
}

func (s *Store) persist(job writeJob) {
	// finish only after the span has ended so waiters observe a complete trace
	err := s.write(job)
	for _, w := range job.waiters {
		w.finish(err)
	}
}

func (s *Store) write(job writeJob) error {
	ctx, span := s.opts.tracer.Start(job.ctx, "cart.persist", trace.WithAttributes(
		attribute.String("cart.op", job.op),
		attribute.Int("cart.items", job.items),
		attribute.Int("cart.coalesced", len(job.waiters)-1),
	))
	defer span.End()

	if s.opts.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.writeTimeout)
		defer cancel()
	}

	var err error
	if job.remove {
		err = s.kv.RemoveItem(ctx, s.opts.key)
	} else {
		err = s.kv.SetItem(ctx, s.opts.key, job.data)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		logger.FromContext(ctx, s.log).WithError(err).WithField("op", job.op).Warn("failed to persist cart")
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Clone(s.items)
}

func (s *Store) Item(id string) (domain.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := domain.IndexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return domain.CartItem{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn to receive the cart after every mutation and load.
// fn runs on the mutating goroutine and must not call back into the store's
// mutations.
func (s *Store) Subscribe(fn func([]domain.CartItem)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) subscribersLocked() []func([]domain.CartItem) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func([]domain.CartItem), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func (s *Store) notify(subs []func([]domain.CartItem), items []domain.CartItem) {
	for _, fn := range subs {
		fn(domain.Clone(items))
	}
}

// Flush waits for every write issued so far and returns the error of the last one.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	w := s.last
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Wait(ctx)
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close rejects further mutations and waits for the pending write to finish.
// It can be called again after a timeout. The persisted cart is left in storage.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.wake)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Debug("cart store closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
