package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/ecocart/internal/event"
)

const (
	streamBuffer      = 16
	heartbeatInterval = 15 * time.Second
)

// CartEvents handles GET /api/v1/cart/events. It streams the session's
// cart:updated notifications as Server-Sent Events, starting with the current
// count, until the client goes away.
func (h *Handler) CartEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	rc := http.NewResponseController(w)

	// Subscribe before reading the count so no change slips in between.
	events := h.bus.Stream(ctx, streamBuffer)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	initial := event.Event{Name: event.CartUpdated, Scope: sess.ID, Count: sess.Cart.Count(ctx), At: time.Now().UTC()}
	if err := writeEvent(w, initial); err != nil || rc.Flush() != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Name != event.CartUpdated || e.Scope != sess.ID {
				continue
			}
			if err := writeEvent(w, e); err != nil {
				h.logger.DebugContext(ctx, "event stream closed", slog.String("error", err.Error()))
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data)
	return err
}
