// Package cart owns the persisted shopping cart: it loads and saves the
// ecocart_cart blob, applies mutations under a lock and announces each change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/storage"
	apperrors "github.com/utafrali/ecocart/pkg/errors"
	"github.com/utafrali/ecocart/pkg/tracing"
)

// StorageKey is where the serialized cart lives.
const StorageKey = "ecocart_cart"

// LoadStatus tells how Load arrived at its cart.
type LoadStatus int

const (
	// LoadFresh means nothing was stored yet.
	LoadFresh LoadStatus = iota
	// LoadStored means the stored blob decoded cleanly.
	LoadStored
	// LoadRecovered means the blob could not be read or decoded, or had to be
	// repaired. The cart is empty or repaired and Err says why.
	LoadRecovered
)

func (s LoadStatus) String() string {
	switch s {
	case LoadFresh:
		return "fresh"
	case LoadStored:
		return "stored"
	case LoadRecovered:
		return "recovered"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// LoadResult is the outcome of Load. Cart is never nil.
type LoadResult struct {
	Cart   domain.Cart
	Status LoadStatus
	Err    error
}

// Recovered reports whether the stored cart was unusable as-is.
func (r LoadResult) Recovered() bool {
	return r.Status == LoadRecovered
}

// ReadErr returns the *StorageReadError when storage could not be read, and
// nil for every other outcome, including a malformed blob.
func (r LoadResult) ReadErr() error {
	var readErr *StorageReadError
	if errors.As(r.Err, &readErr) {
		return readErr
	}
	return nil
}

// Option configures a Store.
type Option func(*Store)

// WithLocker sets the lock held across each read-modify-write cycle. Stores
// sharing one storage scope must share one locker.
func WithLocker(l sync.Locker) Option {
	return func(s *Store) { s.mu = l }
}

// WithScope names the storage scope in events and logs.
func WithScope(scope string) Option {
	return func(s *Store) { s.scope = scope }
}

// Store is the cart over one storage scope. Every mutation loads, applies the
// change, saves and publishes cart:updated, in that order, while holding the
// store's locker. Listeners run inside that critical section and must not call
// back into the store.
type Store struct {
	storage storage.Storage
	calc    *pricing.Calculator
	events  event.Publisher
	logger  *slog.Logger
	tracer  trace.Tracer
	mu      sync.Locker
	scope   string
}

// NewStore creates a cart store. A nil publisher discards events.
func NewStore(s storage.Storage, calc *pricing.Calculator, events event.Publisher, logger *slog.Logger, opts ...Option) *Store {
	if events == nil {
		events = event.Discard
	}
	st := &Store{
		storage: s,
		calc:    calc,
		events:  events,
		logger:  logger,
		tracer:  tracing.Tracer("ecocart/cart"),
		mu:      &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Scope returns the scope name given with WithScope.
func (s *Store) Scope() string {
	return s.scope
}

// Load reads the stored cart. It never fails: a missing blob is a fresh empty
// cart, and an unreadable or malformed one is logged and reported through
// LoadRecovered.
func (s *Store) Load(ctx context.Context) LoadResult {
	raw, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read cart, using empty cart",
			slog.String("scope", s.scope),
			slog.String("error", err.Error()),
		)
		return LoadResult{Cart: domain.Cart{}, Status: LoadRecovered, Err: &StorageReadError{Key: StorageKey, Err: err}}
	}
	if !ok {
		return LoadResult{Cart: domain.Cart{}, Status: LoadFresh}
	}

	cart, err := decode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "stored cart is unusable",
			slog.String("scope", s.scope),
			slog.Int("cart_lines", len(cart)),
			slog.String("error", err.Error()),
		)
		return LoadResult{Cart: cart, Status: LoadRecovered, Err: err}
	}
	return LoadResult{Cart: cart, Status: LoadStored}
}

// decode parses a stored blob. Unparseable input yields an empty cart. A blob
// that parses but holds null, blank ids, non-positive quantities or repeated
// ids is repaired and returned together with an ErrRepaired error.
func decode(raw string) (domain.Cart, error) {
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return domain.Cart{}, fmt.Errorf("decode %s: %w", StorageKey, err)
	}
	if lines == nil {
		return domain.Cart{}, fmt.Errorf("%w: null cart", ErrRepaired)
	}

	cart := make(domain.Cart, 0, len(lines))
	dropped, merged := 0, 0
	for _, line := range lines {
		if line.ID == "" || line.Qty <= 0 {
			dropped++
			continue
		}
		if i := cart.Index(line.ID); i >= 0 {
			cart[i].Qty += line.Qty
			merged++
			continue
		}
		cart = append(cart, line)
	}
	if dropped > 0 || merged > 0 {
		return cart, fmt.Errorf("%w: dropped %d invalid lines, merged %d duplicates", ErrRepaired, dropped, merged)
	}
	return cart, nil
}

// Save overwrites the stored cart. A storage failure is a *StorageWriteError.
func (s *Store) Save(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart.Clone())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, StorageKey, string(data)); err != nil {
		return &StorageWriteError{Key: StorageKey, Err: err}
	}
	return nil
}

// Add increases the quantity of productID by qty, never letting it drop below
// one, or appends a new line of max(1, qty).
func (s *Store) Add(ctx context.Context, productID string, qty int) (domain.Cart, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	return s.mutate(ctx, "add", productID, qty, func(c domain.Cart) domain.Cart {
		if i := c.Index(productID); i >= 0 {
			c[i].Qty = max(1, c[i].Qty+qty)
			return c
		}
		return append(c, domain.CartLine{ID: productID, Qty: max(1, qty)})
	})
}

// Remove deletes the line for productID. An absent line is not an error.
func (s *Store) Remove(ctx context.Context, productID string) (domain.Cart, error) {
	return s.mutate(ctx, "remove", productID, 0, func(c domain.Cart) domain.Cart {
		return c.Without(productID)
	})
}

// SetQuantity overwrites the quantity of an existing line. qty <= 0 removes the
// line. A product that is not in the cart is left out; use Add for that.
func (s *Store) SetQuantity(ctx context.Context, productID string, qty int) (domain.Cart, error) {
	return s.mutate(ctx, "set_quantity", productID, qty, func(c domain.Cart) domain.Cart {
		if qty <= 0 {
			return c.Without(productID)
		}
		if i := c.Index(productID); i >= 0 {
			c[i].Qty = qty
		}
		return c
	})
}

func (s *Store) mutate(ctx context.Context, op, productID string, qty int, apply func(domain.Cart) domain.Cart) (domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "cart."+op, trace.WithAttributes(
		attribute.String("cart.scope", s.scope),
		attribute.String("cart.product_id", productID),
		attribute.Int("cart.qty", qty),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := s.Load(ctx)
	if err := loaded.ReadErr(); err != nil {
		tracing.Fail(span, err, "load cart")
		return nil, err
	}

	next := apply(loaded.Cart)
	if err := s.Save(ctx, next); err != nil {
		tracing.Fail(span, err, "save cart")
		s.logger.ErrorContext(ctx, "failed to save cart",
			slog.String("op", op),
			slog.String("scope", s.scope),
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	count := next.TotalQuantity()
	span.SetAttributes(attribute.Int("cart.count", count))
	s.events.Publish(ctx, event.Event{Name: event.CartUpdated, Scope: s.scope, Count: count})

	s.logger.DebugContext(ctx, "cart updated",
		slog.String("op", op),
		slog.String("scope", s.scope),
		slog.String("product_id", productID),
		slog.Int("count", count),
	)
	return next.Clone(), nil
}

// Details prices the current cart.
func (s *Store) Details(ctx context.Context) domain.CartDetails {
	return s.calc.Compute(s.Load(ctx).Cart)
}

// Count returns the total quantity across all lines.
func (s *Store) Count(ctx context.Context) int {
	return s.Details(ctx).TotalItems
}

// Settle checks the cart out. Under the store's lock it prices the cart,
// refuses an empty one with ErrEmptyCart, hands the details to record and,
// only if record succeeds, empties the cart and publishes cart:updated. If the
// cart cannot be emptied after record succeeded, the details come back with a
// *CartNotClearedError.
func (s *Store) Settle(ctx context.Context, record func(context.Context, domain.CartDetails) error) (domain.CartDetails, error) {
	ctx, span := s.tracer.Start(ctx, "cart.settle", trace.WithAttributes(
		attribute.String("cart.scope", s.scope),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := s.Load(ctx)
	if err := loaded.ReadErr(); err != nil {
		tracing.Fail(span, err, "load cart")
		return domain.CartDetails{}, err
	}

	details := s.calc.Compute(loaded.Cart)
	if details.Empty() {
		return domain.CartDetails{}, ErrEmptyCart
	}

	if err := record(ctx, details); err != nil {
		tracing.Fail(span, err, "record order")
		return domain.CartDetails{}, err
	}

	if err := s.Save(ctx, domain.Cart{}); err != nil {
		tracing.Fail(span, err, "clear cart")
		s.logger.ErrorContext(ctx, "order recorded but cart could not be cleared",
			slog.String("scope", s.scope),
			slog.String("error", err.Error()),
		)
		return details, &CartNotClearedError{Err: err}
	}
	s.events.Publish(ctx, event.Event{Name: event.CartUpdated, Scope: s.scope, Count: 0})
	return details, nil
}
