package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/ecocart/pkg/kafka"
	"github.com/utafrali/ecocart/pkg/logger"
)

// Kafka topics events are forwarded to.
var (
	TopicCartUpdated = pkgkafka.Topic("cart", "updated")
	TopicOrderPlaced = pkgkafka.Topic("order", "placed")
)

// SourceEcoCart identifies events produced by this service.
const SourceEcoCart = "ecocart"

// KafkaPublisher is satisfied by *pkgkafka.Producer.
type KafkaPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// CartUpdatedData is the payload of a cart.updated message.
type CartUpdatedData struct {
	Scope string `json:"scope"`
	Count int    `json:"count"`
}

// OrderPlacedData is the payload of an order.placed message.
type OrderPlacedData struct {
	Scope   string `json:"scope"`
	OrderID string `json:"order_id"`
	Count   int    `json:"count"`
}

// KafkaForwarder republishes bus events to Kafka.
type KafkaForwarder struct {
	kafka  KafkaPublisher
	logger *slog.Logger
}

// NewKafkaForwarder creates a forwarder; subscribe its Handle method to a Bus.
func NewKafkaForwarder(kafka KafkaPublisher, logger *slog.Logger) *KafkaForwarder {
	return &KafkaForwarder{
		kafka:  kafka,
		logger: logger,
	}
}

// Handle is a Listener. Events with no topic mapping are ignored.
func (f *KafkaForwarder) Handle(ctx context.Context, e Event) error {
	var (
		topic string
		data  any
	)
	switch e.Name {
	case CartUpdated:
		topic = TopicCartUpdated
		data = CartUpdatedData{Scope: e.Scope, Count: e.Count}
	case OrderPlaced:
		topic = TopicOrderPlaced
		data = OrderPlacedData{Scope: e.Scope, OrderID: e.OrderID, Count: e.Count}
	default:
		return nil
	}

	msg, err := pkgkafka.NewEvent(e.Name, e.Scope, SourceEcoCart, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", e.Name, err)
	}
	msg.Timestamp = e.At
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		msg.WithCorrelationID(id)
	}

	if err := f.kafka.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("forward %s: %w", e.Name, err)
	}

	f.logger.DebugContext(ctx, "forwarded event to kafka",
		slog.String("event", e.Name),
		slog.String("topic", topic),
	)
	return nil
}
