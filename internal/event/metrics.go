package event

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecocart_events_published_total",
		Help: "Total number of events published on the bus",
	},
	[]string{"event"},
)

// CountEvents is a Listener that increments ecocart_events_published_total.
func CountEvents(_ context.Context, e Event) error {
	eventsPublishedTotal.WithLabelValues(e.Name).Inc()
	return nil
}
