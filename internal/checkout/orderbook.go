package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/internal/storage"
)

// OrdersKey is where the order history lives.
const OrdersKey = "ecocart_orders"

// OrderBook is the append-only order history of one storage scope.
type OrderBook struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewOrderBook creates an order book over s.
func NewOrderBook(s storage.Storage, logger *slog.Logger) *OrderBook {
	return &OrderBook{
		storage: s,
		logger:  logger,
	}
}

// List returns the recorded orders, oldest first. A missing or malformed
// history reads as empty; only a storage read failure is an error.
func (b *OrderBook) List(ctx context.Context) ([]domain.Order, error) {
	raw, ok, err := b.storage.Get(ctx, OrdersKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", OrdersKey, err)
	}
	if !ok {
		return []domain.Order{}, nil
	}

	orders, err := decodeOrders(raw)
	if err != nil {
		b.logger.WarnContext(ctx, "order history is malformed, listing none",
			slog.String("error", err.Error()),
		)
		return []domain.Order{}, nil
	}
	return orders, nil
}

// Append adds order to the history. A malformed existing history is refused
// rather than overwritten.
func (b *OrderBook) Append(ctx context.Context, order domain.Order) error {
	orders := []domain.Order{}

	raw, ok, err := b.storage.Get(ctx, OrdersKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", OrdersKey, err)
	}
	if ok {
		if orders, err = decodeOrders(raw); err != nil {
			return fmt.Errorf("existing order history: %w", err)
		}
	}

	data, err := json.Marshal(append(orders, order))
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	if err := b.storage.Set(ctx, OrdersKey, string(data)); err != nil {
		return &cart.StorageWriteError{Key: OrdersKey, Err: err}
	}
	return nil
}

func decodeOrders(raw string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, fmt.Errorf("decode %s: %w", OrdersKey, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
