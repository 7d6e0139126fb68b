// Package checkout places simulated orders: it validates the shopper's
// details, waits out a fixed processing delay, records the order and empties
// the cart.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/pkg/tracing"
	"github.com/utafrali/ecocart/pkg/validator"
)

// DefaultProcessingDelay is the simulated payment processing time.
const DefaultProcessingDelay = 900 * time.Millisecond

// PlaceOrderInput is the checkout form. Fields are trimmed before validation
// and an empty payment means card.
type PlaceOrderInput struct {
	Name    string `json:"name" validate:"notblank"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"min=6"`
	Payment string `json:"payment" validate:"oneof=card paypal cod"`
}

func (in *PlaceOrderInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.Payment = strings.ToLower(strings.TrimSpace(in.Payment))
	if in.Payment == "" {
		in.Payment = domain.PaymentCard
	}
}

// Option configures a Service.
type Option func(*Service)

// WithProcessingDelay overrides DefaultProcessingDelay.
func WithProcessingDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

// WithClock sets the time source for order ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service places orders.
type Service struct {
	events event.Publisher
	logger *slog.Logger
	tracer trace.Tracer
	delay  time.Duration
	now    func() time.Time
}

// NewService creates a checkout service. A nil publisher discards events.
func NewService(events event.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if events == nil {
		events = event.Discard
	}
	s := &Service{
		events: events,
		logger: logger,
		tracer: tracing.Tracer("ecocart/checkout"),
		delay:  DefaultProcessingDelay,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder checks out the cart in store into book. Invalid input returns a
// *validator.ValidationError, an unreadable cart a *cart.StorageReadError and
// an empty cart cart.ErrEmptyCart, all before any waiting. A non-nil order
// with a *cart.CartNotClearedError means the order was recorded but the cart
// still holds its items. Once the processing delay starts the caller can no
// longer cancel: the order is recorded and the cart cleared regardless.
func (s *Service) PlaceOrder(ctx context.Context, store *cart.Store, book *OrderBook, in PlaceOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.place_order", trace.WithAttributes(
		attribute.String("cart.scope", store.Scope()),
	))
	defer span.End()

	in.normalize()
	if err := validator.Validate(in); err != nil {
		return nil, err
	}
	loaded := store.Load(ctx)
	if err := loaded.ReadErr(); err != nil {
		return nil, err
	}
	if len(loaded.Cart) == 0 {
		return nil, cart.ErrEmptyCart
	}

	ctx = context.WithoutCancel(ctx)
	time.Sleep(s.delay)

	var order domain.Order
	details, err := store.Settle(ctx, func(ctx context.Context, d domain.CartDetails) error {
		at := s.now().UTC()
		order = domain.Order{
			ID:        domain.OrderID(at),
			Name:      in.Name,
			Email:     in.Email,
			Address:   in.Address,
			Payment:   in.Payment,
			Items:     d.Items,
			Subtotal:  d.Subtotal,
			CreatedAt: at,
		}
		return book.Append(ctx, order)
	})
	var notCleared *cart.CartNotClearedError
	if err != nil && !errors.As(err, &notCleared) {
		tracing.Fail(span, err, "settle cart")
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.events.Publish(ctx, event.Event{
		Name:    event.OrderPlaced,
		Scope:   store.Scope(),
		Count:   details.TotalItems,
		OrderID: order.ID,
	})

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("scope", store.Scope()),
		slog.String("payment", order.Payment),
		slog.Int("items", details.TotalItems),
		slog.String("subtotal", order.Subtotal.StringFixed(2)),
	)
	if notCleared != nil {
		tracing.Fail(span, notCleared, "clear cart")
		return &order, notCleared
	}
	return &order, nil
}
