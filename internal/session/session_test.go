package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecocart/internal/catalog"
	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/storage"
	apperrors "github.com/utafrali/ecocart/pkg/errors"
)

func setupManager(t *testing.T) (*Manager, *storage.Memory, *event.Bus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, err := catalog.Default()
	require.NoError(t, err)
	mem := storage.NewMemory()
	bus := event.NewBus(logger)
	return NewManager(mem, pricing.NewCalculator(cat), bus, logger), mem, bus
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("abc-123_XYZ"))
	assert.True(t, ValidID("6f1c2a9e-1d2b-4f5a-9a0e-3c1f2b4d5e6f"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("has space"))
	assert.False(t, ValidID("colon:injection"))
	assert.False(t, ValidID(string(make([]byte, 129))))
}

func TestManager_InvalidID(t *testing.T) {
	m, _, _ := setupManager(t)

	_, err := m.Session("bad:id")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m, mem, _ := setupManager(t)
	ctx := context.Background()

	a, err := m.Session("alice")
	require.NoError(t, err)
	b, err := m.Session("bob")
	require.NoError(t, err)

	_, err = a.Cart.Add(ctx, "p1", 2)
	require.NoError(t, err)
	_, err = b.Cart.Add(ctx, "p3", 1)
	require.NoError(t, err)

	assert.Equal(t, domain.Cart{{ID: "p1", Qty: 2}}, a.Cart.Load(ctx).Cart)
	assert.Equal(t, domain.Cart{{ID: "p3", Qty: 1}}, b.Cart.Load(ctx).Cart)

	raw, ok, err := mem.Get(ctx, "session:alice:ecocart_cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"p1","qty":2}]`, raw)
}

func TestManager_EventsCarrySessionScope(t *testing.T) {
	m, _, bus := setupManager(t)
	var got []event.Event
	bus.Subscribe(func(_ context.Context, e event.Event) error {
		got = append(got, e)
		return nil
	})

	s, err := m.Session("carol")
	require.NoError(t, err)
	_, err = s.Cart.Add(context.Background(), "p2", 4)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "carol", got[0].Scope)
	assert.Equal(t, 4, got[0].Count)
}

func TestManager_ConcurrentRequestsShareLock(t *testing.T) {
	m, _, _ := setupManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each request builds its own Session, as the HTTP handlers do.
			s, err := m.Session("dave")
			if !assert.NoError(t, err) {
				return
			}
			_, err = s.Cart.Add(ctx, "p1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := m.Session("dave")
	require.NoError(t, err)
	assert.Equal(t, 60, s.Cart.Count(ctx))
	assert.Zero(t, m.Active(), "idle sessions must not keep lock entries")
}

func TestManager_OrdersAreScoped(t *testing.T) {
	m, mem, _ := setupManager(t)
	ctx := context.Background()

	s, err := m.Session("erin")
	require.NoError(t, err)
	require.NoError(t, s.Orders.Append(ctx, domain.Order{ID: "ORD-1"}))

	_, ok, err := mem.Get(ctx, "session:erin:ecocart_orders")
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := m.Session("frank")
	require.NoError(t, err)
	orders, err := other.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
