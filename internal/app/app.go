package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/ecocart/internal/catalog"
	"github.com/utafrali/ecocart/internal/checkout"
	"github.com/utafrali/ecocart/internal/config"
	"github.com/utafrali/ecocart/internal/contact"
	"github.com/utafrali/ecocart/internal/event"
	handler "github.com/utafrali/ecocart/internal/handler/http"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/session"
	"github.com/utafrali/ecocart/internal/storage"
	"github.com/utafrali/ecocart/pkg/health"
	pkgkafka "github.com/utafrali/ecocart/pkg/kafka"
	"github.com/utafrali/ecocart/pkg/tracing"
)

// Version is reported by the health endpoints.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// App wires together all dependencies and runs the ecocart server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	bus            *event.Bus
	closeStorage   func() error
	producer       *pkgkafka.Producer
	watcher        *catalog.Watcher
	shutdownTracer func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, shutdownTracer: shutdownTracer}
	if err := a.build(ctx); err != nil {
		a.release()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", slog.Int("products", cat.Len()), slog.String("path", cfg.CatalogPath))
	if cfg.CatalogWatch {
		if a.watcher, err = catalog.NewWatcher(cat, cfg.CatalogPath, logger); err != nil {
			return err
		}
	}

	store, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	a.closeStorage = closeStorage

	healthHandler := health.NewHandler(Version)
	healthHandler.Register("storage", func(ctx context.Context) error {
		return storage.Ping(ctx, store)
	})

	a.bus = event.NewBus(logger)
	a.bus.Subscribe(event.CountEvents)
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.bus.Subscribe(event.NewKafkaForwarder(a.producer, logger).Handle)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	calc := pricing.NewCalculator(cat)
	h := handler.NewHandler(handler.Deps{
		Catalog:  cat,
		Calc:     calc,
		Sessions: session.NewManager(store, calc, a.bus, logger),
		Checkout: checkout.NewService(a.bus, logger, checkout.WithProcessingDelay(cfg.CheckoutDelay)),
		Contact:  contact.NewService(logger),
		Bus:      a.bus,
	}, logger)

	router := handler.NewRouter(h, healthHandler, handler.RouterConfig{
		AllowedOrigins:       cfg.CORSAllowedOrigins,
		ContactRatePerMinute: cfg.ContactRatePerMinute,
		TrustProxyHeaders:    cfg.TrustProxyHeaders,
	}, logger)

	// No WriteTimeout: the event stream is long-lived. API routes are bounded
	// by the router's timeout middleware instead.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	// Event streams only end when their request context does.
	a.httpServer.RegisterOnShutdown(cancelBase)
	return nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.CatalogPath)
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run serves HTTP and, when enabled, watches the catalog file, until ctx is
// canceled or a component fails. It always shuts the application down before
// returning.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		a.release()
		return fmt.Errorf("listen %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	err := g.Wait()
	a.release()
	return err
}

// release closes everything NewApp opened, in reverse order.
func (a *App) release() {
	a.logger.Info("shutting down application...")

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.closeStorage != nil {
		if err := a.closeStorage(); err != nil {
			a.logger.Error("storage close error", slog.String("error", err.Error()))
		}
	}
	if a.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
}
