package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ecocart/pkg/health"
	"github.com/utafrali/ecocart/pkg/middleware"
)

// requestTimeout bounds every request except the event stream. It leaves
// room for the checkout processing delay.
const requestTimeout = 30 * time.Second

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	AllowedOrigins       []string
	ContactRatePerMinute int
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// friends. Without it the contact rate limit keys on the connection.
	TrustProxyHeaders bool
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(h *Handler, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Tracing)
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	contactLimiter := middleware.NewRateLimiter(max(1, cfg.ContactRatePerMinute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Get("/featured", h.FeaturedProducts)
				r.Get("/facets", h.ProductFacets)
				r.Get("/{id}", h.GetProduct)
			})

			r.With(contactLimiter.Handler(logger)).Post("/contact", h.SubmitContact)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession)

				r.Get("/cart", h.GetCart)
				r.Get("/cart/count", h.CartCount)
				r.Post("/cart/items", h.AddItem)
				r.Put("/cart/items/{productId}", h.SetQuantity)
				r.Delete("/cart/items/{productId}", h.RemoveItem)

				r.Post("/checkout", h.PlaceOrder)
				r.Get("/orders", h.ListOrders)
			})
		})

		r.With(h.RequireSession).Get("/cart/events", h.CartEvents)
	})

	return r
}
