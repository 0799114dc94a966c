package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fjod/go_cart/mobile-cart/internal/cart"

// AddWritePolicy decides which snapshot AddToCart persists.
type AddWritePolicy int

const (
	// PersistUpdated writes the cart as it is after the add.
	PersistUpdated AddWritePolicy = iota
	// PersistPreMutation writes the cart as it was before the add. This is the
	// behavior of the storefront app the stored data comes from; the add is then
	// only persisted by the next mutation.
	PersistPreMutation
)

func (p AddWritePolicy) String() string {
	switch p {
	case PersistUpdated:
		return "updated"
	case PersistPreMutation:
		return "pre-mutation"
	default:
		return fmt.Sprintf("AddWritePolicy(%d)", int(p))
	}
}

func ParseAddWritePolicy(s string) (AddWritePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "updated":
		return PersistUpdated, nil
	case "pre-mutation", "stale":
		return PersistPreMutation, nil
	default:
		return PersistUpdated, fmt.Errorf("unknown add write policy %q", s)
	}
}

// LoadPolicy decides what Load does with unreadable storage or corrupt data.
type LoadPolicy int

const (
	// LoadLenient logs and starts with an empty cart.
	LoadLenient LoadPolicy = iota
	// LoadStrict returns the error.
	LoadStrict
)

func (p LoadPolicy) String() string {
	switch p {
	case LoadLenient:
		return "lenient"
	case LoadStrict:
		return "strict"
	default:
		return fmt.Sprintf("LoadPolicy(%d)", int(p))
	}
}

func ParseLoadPolicy(s string) (LoadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return LoadLenient, nil
	case "strict":
		return LoadStrict, nil
	default:
		return LoadLenient, fmt.Errorf("unknown load policy %q", s)
	}
}

type options struct {
	key          string
	log          *logrus.Entry
	tracer       trace.Tracer
	decrement    domain.DecrementPolicy
	addWrite     AddWritePolicy
	load         LoadPolicy
	writeTimeout time.Duration
}

func defaultOptions() options {
	return options{
		key:          DefaultKey,
		log:          logrus.NewEntry(logrus.StandardLogger()),
		tracer:       otel.Tracer(tracerName),
		decrement:    domain.DecrementFloor,
		addWrite:     PersistUpdated,
		load:         LoadLenient,
		writeTimeout: 5 * time.Second,
	}
}

type Option func(*options)

func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

func WithDecrementPolicy(p domain.DecrementPolicy) Option {
	return func(o *options) { o.decrement = p }
}

func WithAddWritePolicy(p AddWritePolicy) Option {
	return func(o *options) { o.addWrite = p }
}

func WithLoadPolicy(p LoadPolicy) Option {
	return func(o *options) { o.load = p }
}

// WithWriteTimeout bounds a single persistence write. Zero disables the bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}
