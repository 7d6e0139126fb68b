// Package event carries cart change notifications from the store to whoever
// listens: SSE streams, the Kafka forwarder, metrics, CLI printers.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event names.
const (
	CartUpdated = "cart:updated"
	OrderPlaced = "order:placed"
)

// Event is a change notification. Count is the cart's total item quantity
// after the change; OrderID is set for OrderPlaced.
type Event struct {
	Name    string    `json:"event"`
	Scope   string    `json:"scope,omitempty"`
	Count   int       `json:"count"`
	OrderID string    `json:"order_id,omitempty"`
	At      time.Time `json:"at"`
}

// Listener handles one event. Returned errors are logged by the bus and never
// reach the publisher.
type Listener func(ctx context.Context, e Event) error

// Publisher is what the cart store and checkout depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type subscription struct {
	id uint64
	fn Listener
}

// Bus is a synchronous, in-process fan-out. It is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of current subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers e to every listener subscribed at call time, in
// subscription order. Listener failures and panics are logged and dropped.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	for _, s := range snapshot {
		if err := deliver(ctx, s.fn, e); err != nil {
			b.logger.WarnContext(ctx, "event listener failed",
				slog.String("event", e.Name),
				slog.String("scope", e.Scope),
				slog.String("error", err.Error()),
			)
		}
	}
}

func deliver(ctx context.Context, fn Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(ctx, e)
}

// Stream returns a channel receiving every published event until ctx is done,
// at which point the channel is closed. When the buffer is full the event is
// dropped for this stream; publishers never block.
func (b *Bus) Stream(ctx context.Context, buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	st := &stream{ch: make(chan Event, buffer)}
	unsubscribe := b.Subscribe(func(_ context.Context, e Event) error {
		if !st.send(e) {
			b.logger.Debug("event stream full, dropping event", slog.String("event", e.Name))
		}
		return nil
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		st.close()
	}()
	return st.ch
}

type stream struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *stream) send(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	close(s.ch)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}
