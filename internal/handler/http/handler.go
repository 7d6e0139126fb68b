package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ecocart/internal/catalog"
	"github.com/utafrali/ecocart/internal/checkout"
	"github.com/utafrali/ecocart/internal/contact"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/session"
	"github.com/utafrali/ecocart/pkg/httputil"
)

// Handler serves the storefront API.
type Handler struct {
	catalog  *catalog.Catalog
	calc     *pricing.Calculator
	sessions *session.Manager
	checkout *checkout.Service
	contact  *contact.Service
	bus      *event.Bus
	logger   *slog.Logger
}

// Deps are the services a Handler needs.
type Deps struct {
	Catalog  *catalog.Catalog
	Calc     *pricing.Calculator
	Sessions *session.Manager
	Checkout *checkout.Service
	Contact  *contact.Service
	Bus      *event.Bus
}

// NewHandler creates the API handler.
func NewHandler(d Deps, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  d.Catalog,
		calc:     d.Calc,
		sessions: d.Sessions,
		checkout: d.Checkout,
		contact:  d.Contact,
		bus:      d.Bus,
		logger:   logger,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, err, h.logger)
}
