package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/checkout"
	"github.com/utafrali/ecocart/internal/domain"
	"github.com/utafrali/ecocart/pkg/httputil"
)

// PlaceOrder handles POST /api/v1/checkout
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.PlaceOrderInput
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := sessionFrom(r.Context())
	order, err := h.checkout.PlaceOrder(r.Context(), sess.Cart, sess.Orders, req)
	var notCleared *cart.CartNotClearedError
	if err != nil && (order == nil || !errors.As(err, &notCleared)) {
		h.writeError(w, r, err)
		return
	}
	if notCleared != nil {
		h.logger.WarnContext(r.Context(), "order placed but cart still holds its items",
			slog.String("order_id", order.ID),
			slog.String("error", notCleared.Error()),
		)
	}
	httputil.WriteData(w, http.StatusCreated, orderResponse{Order: order, CartNotCleared: notCleared != nil})
}

// orderResponse is a placed order. CartNotCleared tells the client the order
// went through but the cart could not be emptied, so checking out again would
// order the same items twice.
type orderResponse struct {
	*domain.Order
	CartNotCleared bool `json:"cart_not_cleared,omitempty"`
}

// ListOrders handles GET /api/v1/orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := sessionFrom(r.Context()).Orders.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, orders)
}
