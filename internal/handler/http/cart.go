package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ecocart/internal/domain"
	apperrors "github.com/utafrali/ecocart/pkg/errors"
	"github.com/utafrali/ecocart/pkg/httputil"
	"github.com/utafrali/ecocart/pkg/validator"
)

// --- Request DTOs ---

// AddItemRequest is the body of POST /api/v1/cart/items. Quantity defaults
// to 1 and may be negative: it is added to the line, which never drops below
// one.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

// SetQuantityRequest is the body of PUT /api/v1/cart/items/{productId}.
// Zero or less removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// cartResponse is the priced cart. Recovered is set when the stored cart was
// unreadable and an empty or repaired cart is being shown instead.
type cartResponse struct {
	domain.CartDetails
	Recovered bool `json:"recovered,omitempty"`
}

type countResponse struct {
	Count int `json:"count"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	res := sessionFrom(r.Context()).Cart.Load(r.Context())
	httputil.WriteData(w, http.StatusOK, cartResponse{
		CartDetails: h.calc.Compute(res.Cart),
		Recovered:   res.Recovered(),
	})
}

// CartCount handles GET /api/v1/cart/count
func (h *Handler) CartCount(w http.ResponseWriter, r *http.Request) {
	count := sessionFrom(r.Context()).Cart.Count(r.Context())
	httputil.WriteData(w, http.StatusOK, countResponse{Count: count})
}

// AddItem handles POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if _, ok := h.catalog.Lookup(req.ProductID); !ok {
		h.writeError(w, r, apperrors.NotFound("product", req.ProductID))
		return
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	cart, err := sessionFrom(r.Context()).Cart.Add(r.Context(), req.ProductID, qty)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, cartResponse{CartDetails: h.calc.Compute(cart)})
}

// SetQuantity handles PUT /api/v1/cart/items/{productId}
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := sessionFrom(r.Context()).Cart.SetQuantity(r.Context(), chi.URLParam(r, "productId"), *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, cartResponse{CartDetails: h.calc.Compute(cart)})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := sessionFrom(r.Context()).Cart.Remove(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, cartResponse{CartDetails: h.calc.Compute(cart)})
}
