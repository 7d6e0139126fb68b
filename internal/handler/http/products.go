package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/ecocart/internal/catalog"
	apperrors "github.com/utafrali/ecocart/pkg/errors"
	"github.com/utafrali/ecocart/pkg/httputil"
	"github.com/utafrali/ecocart/pkg/pagination"
)

// facetsResponse lists the values the product filters accept.
type facetsResponse struct {
	Categories []string `json:"categories"`
	Badges     []string `json:"badges"`
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	products := h.catalog.Filter(q)
	httputil.WriteData(w, http.StatusOK, pagination.Paginate(products, pagination.FromRequest(r)))
}

func parseQuery(r *http.Request) (catalog.Query, error) {
	v := r.URL.Query()
	q := catalog.Query{
		Text:     v.Get("q"),
		Category: v.Get("category"),
		Badge:    v.Get("badge"),
		Sort:     v.Get("sort"),
	}

	switch q.Sort {
	case catalog.SortCatalog, catalog.SortPriceAsc, catalog.SortPriceDesc:
	default:
		return q, fmt.Errorf("sort must be %q or %q", catalog.SortPriceAsc, catalog.SortPriceDesc)
	}

	for _, bound := range []struct {
		param string
		dst   **decimal.Decimal
	}{
		{"min_price", &q.MinPrice},
		{"max_price", &q.MaxPrice},
	} {
		raw := v.Get(bound.param)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return q, fmt.Errorf("%s must be a non-negative number", bound.param)
		}
		*bound.dst = &d
	}

	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return q, fmt.Errorf("min_price must not exceed max_price")
	}
	return q, nil
}

// FeaturedProducts handles GET /api/v1/products/featured
func (h *Handler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	n := catalog.DefaultFeatured
	if raw := r.URL.Query().Get("count"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			httputil.WriteValidationError(w, fmt.Errorf("count must be a positive integer"))
			return
		}
		n = v
	}
	httputil.WriteData(w, http.StatusOK, h.catalog.Featured(n))
}

// ProductFacets handles GET /api/v1/products/facets
func (h *Handler) ProductFacets(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, facetsResponse{
		Categories: h.catalog.Categories(),
		Badges:     h.catalog.Badges(),
	})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.catalog.Lookup(id)
	if !ok {
		h.writeError(w, r, apperrors.NotFound("product", id))
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}
