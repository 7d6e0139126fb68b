package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/catalog"
	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/storage"
	"github.com/utafrali/ecocart/pkg/validator"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

const testDelay = 60 * time.Millisecond

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 535_000_000, time.UTC)

type fixture struct {
	mem    *storage.Memory
	store  *cart.Store
	book   *OrderBook
	svc    *Service
	mu     sync.Mutex
	events []event.Event
}

func (f *fixture) recorded() []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.Event(nil), f.events...)
}

func setupCheckout(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, err := catalog.Default()
	require.NoError(t, err)

	f := &fixture{mem: storage.NewMemory()}
	bus := event.NewBus(logger)
	bus.Subscribe(func(_ context.Context, e event.Event) error {
		f.mu.Lock()
		f.events = append(f.events, e)
		f.mu.Unlock()
		return nil
	})

	f.store = cart.NewStore(f.mem, pricing.NewCalculator(cat), bus, logger, cart.WithScope("sess-1"))
	f.book = NewOrderBook(f.mem, logger)
	f.svc = NewService(bus, logger,
		WithProcessingDelay(testDelay),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func validInput() PlaceOrderInput {
	return PlaceOrderInput{
		Name:    "  Ada Lovelace ",
		Email:   "ada@example.com",
		Address: "12 Green Lane, Leeds",
		Payment: "paypal",
	}
}

func (f *fixture) fill(t *testing.T) {
	t.Helper()
	_, err := f.store.Add(context.Background(), "p1", 2)
	require.NoError(t, err)
	_, err = f.store.Add(context.Background(), "p2", 1)
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// PlaceOrder
// ---------------------------------------------------------------------------

func TestPlaceOrder_Success(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)

	start := time.Now()
	order, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, validInput())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), testDelay)

	assert.Equal(t, "ORD-1773500966535", order.ID)
	assert.Equal(t, "Ada Lovelace", order.Name)
	assert.Equal(t, "paypal", order.Payment)
	assert.Equal(t, "22.48", order.Subtotal.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "p1", order.Items[0].Product.ID)
	assert.Equal(t, fixedNow, order.CreatedAt)

	assert.Zero(t, f.store.Count(context.Background()))

	orders, err := f.book.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.True(t, order.Subtotal.Equal(orders[0].Subtotal))

	events := f.recorded()
	require.GreaterOrEqual(t, len(events), 2)
	last := events[len(events)-2:]
	assert.Equal(t, event.CartUpdated, last[0].Name)
	assert.Equal(t, 0, last[0].Count)
	assert.Equal(t, event.OrderPlaced, last[1].Name)
	assert.Equal(t, order.ID, last[1].OrderID)
	assert.Equal(t, "sess-1", last[1].Scope)
	assert.Equal(t, 3, last[1].Count)
}

func TestPlaceOrder_DefaultsToCard(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)
	in := validInput()
	in.Payment = ""

	order, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, in)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCard, order.Payment)
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*PlaceOrderInput)
		field string
	}{
		{"blank name", func(in *PlaceOrderInput) { in.Name = "   " }, "name"},
		{"bad email", func(in *PlaceOrderInput) { in.Email = "ada@" }, "email"},
		{"short address", func(in *PlaceOrderInput) { in.Address = "  Leed  " }, "address"},
		{"unknown payment", func(in *PlaceOrderInput) { in.Payment = "bitcoin" }, "payment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupCheckout(t)
			f.fill(t)
			in := validInput()
			tt.edit(&in)

			start := time.Now()
			_, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, in)
			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
			assert.Less(t, time.Since(start), testDelay)
			assert.Equal(t, 3, f.store.Count(context.Background()))
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := setupCheckout(t)

	start := time.Now()
	_, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, validInput())
	require.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Less(t, time.Since(start), testDelay)

	orders, err := f.book.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_CartKeptUntilDelayEnds(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, validInput())
		assert.NoError(t, err)
	}()

	time.Sleep(testDelay / 3)
	assert.Equal(t, 3, f.store.Count(context.Background()), "cart must not be cleared during the delay")
	orders, err := f.book.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders, "order must not be recorded during the delay")

	<-done
	assert.Zero(t, f.store.Count(context.Background()))
}

func TestPlaceOrder_IgnoresCancellation(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(testDelay / 4)
		cancel()
	}()

	order, err := f.svc.PlaceOrder(ctx, f.store, f.book, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Zero(t, f.store.Count(context.Background()))
}

func TestPlaceOrder_MalformedHistoryKeepsCart(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)
	require.NoError(t, f.mem.Set(context.Background(), OrdersKey, "{oops"))

	_, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, validInput())
	require.ErrorContains(t, err, "existing order history")
	assert.Equal(t, 3, f.store.Count(context.Background()))

	raw, _, _ := f.mem.Get(context.Background(), OrdersKey)
	assert.Equal(t, "{oops", raw)
}

// flakyStorage fails cart reads or cart writes on demand; order history is
// always reachable.
type flakyStorage struct {
	*storage.Memory
	failCartGet bool
	failCartSet bool
}

func (s *flakyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failCartGet && key == cart.StorageKey {
		return "", false, errors.New("i/o timeout")
	}
	return s.Memory.Get(ctx, key)
}

func (s *flakyStorage) Set(ctx context.Context, key, value string) error {
	if s.failCartSet && key == cart.StorageKey {
		return errors.New("read-only replica")
	}
	return s.Memory.Set(ctx, key, value)
}

func (f *fixture) useFlakyStore(t *testing.T) *flakyStorage {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flaky := &flakyStorage{Memory: f.mem}
	f.store = cart.NewStore(flaky, pricing.NewCalculator(cat), event.Discard, logger, cart.WithScope("sess-1"))
	return flaky
}

func TestPlaceOrder_UnreadableCart(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)
	flaky := f.useFlakyStore(t)
	flaky.failCartGet = true

	start := time.Now()
	order, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, validInput())
	assert.Less(t, time.Since(start), testDelay)
	assert.Nil(t, order)

	var readErr *cart.StorageReadError
	require.ErrorAs(t, err, &readErr)
	assert.NotErrorIs(t, err, cart.ErrEmptyCart)

	orders, err := f.book.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_CartNotClearedReturnsOrder(t *testing.T) {
	f := setupCheckout(t)
	f.fill(t)
	flaky := f.useFlakyStore(t)
	flaky.failCartSet = true

	order, err := f.svc.PlaceOrder(context.Background(), f.store, f.book, validInput())
	var notCleared *cart.CartNotClearedError
	require.ErrorAs(t, err, &notCleared)
	require.NotNil(t, order)
	assert.Equal(t, "ORD-1773500966535", order.ID)

	orders, err := f.book.List(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, 3, f.store.Count(context.Background()))
}

// ---------------------------------------------------------------------------
// OrderBook
// ---------------------------------------------------------------------------

type failingSet struct {
	*storage.Memory
}

func (failingSet) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestOrderBook_ListMissingAndMalformed(t *testing.T) {
	mem := storage.NewMemory()
	book := NewOrderBook(mem, slog.New(slog.NewTextHandler(io.Discard, nil)))

	orders, err := book.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	require.NoError(t, mem.Set(context.Background(), OrdersKey, "not json"))
	orders, err = book.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)

	require.NoError(t, mem.Set(context.Background(), OrdersKey, "null"))
	orders, err = book.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, orders)
}

func TestOrderBook_AppendKeepsOrder(t *testing.T) {
	mem := storage.NewMemory()
	book := NewOrderBook(mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	require.NoError(t, book.Append(ctx, domain.Order{ID: "ORD-1", CreatedAt: fixedNow}))
	require.NoError(t, book.Append(ctx, domain.Order{ID: "ORD-2", CreatedAt: fixedNow}))

	orders, err := book.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-1", orders[0].ID)
	assert.Equal(t, "ORD-2", orders[1].ID)

	raw, _, _ := mem.Get(ctx, OrdersKey)
	var generic []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &generic))
	assert.Equal(t, "2026-03-14T15:09:26.535Z", generic[0]["createdAt"])
	assert.Contains(t, generic[0], "subtotal")
	assert.Contains(t, generic[0], "items")
}

func TestOrderBook_AppendWriteFailure(t *testing.T) {
	book := NewOrderBook(failingSet{storage.NewMemory()}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := book.Append(context.Background(), domain.Order{ID: "ORD-1"})
	var writeErr *cart.StorageWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, OrdersKey, writeErr.Key)
}
