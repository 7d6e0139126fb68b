package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/ecocart/internal/cart"
	"github.com/utafrali/ecocart/internal/catalog"
	"github.com/utafrali/ecocart/internal/checkout"
	"github.com/utafrali/ecocart/internal/event"
	"github.com/utafrali/ecocart/internal/pricing"
	"github.com/utafrali/ecocart/internal/session"
	"github.com/utafrali/ecocart/internal/storage/sqlite"
	pkgconfig "github.com/utafrali/ecocart/pkg/config"
	"github.com/utafrali/ecocart/pkg/logger"
)

// envDefaults are read from ECOCTL_* variables and seed the flag defaults.
type envDefaults struct {
	DB       string `env:"DB" envDefault:"ecocart.db"`
	Catalog  string `env:"CATALOG" envDefault:""`
	Session  string `env:"SESSION" envDefault:""`
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`
}

// cli holds the flags and the lazily opened stores of one invocation.
type cli struct {
	out, errOut io.Writer

	dbPath      string
	catalogPath string
	sessionID   string
	logLevel    string
	verbose     bool
	jsonOutput  bool

	logger  *slog.Logger
	catalog *catalog.Catalog
	calc    *pricing.Calculator
	bus     *event.Bus
	db      *sqlite.Store
	cart    *cart.Store
	orders  *checkout.OrderBook
}

// execute runs one invocation and closes whatever it opened, including when
// the command fails.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root, c := newRootCmd(out, errOut)
	return c.run(ctx, root, args)
}

func (c *cli) run(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(out, errOut io.Writer) (*cobra.Command, *cli) {
	c := &cli{out: out, errOut: errOut}

	var defaults envDefaults
	envErr := pkgconfig.LoadPrefixed(&defaults, "ECOCTL_")

	root := &cobra.Command{
		Use:           "ecocartctl",
		Short:         "Browse the EcoCart catalog and manage a local cart",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			return c.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.dbPath, "db", defaults.DB, "SQLite file holding the cart and orders")
	pf.StringVar(&c.catalogPath, "catalog", defaults.Catalog, "JSON or YAML catalog file (default: built-in products)")
	pf.StringVar(&c.sessionID, "session", defaults.Session, "keep cart and orders under this session id")
	pf.StringVar(&c.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "print cart:updated notifications")
	pf.BoolVar(&c.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newProductsCmd(c),
		newCartCmd(c),
		newCheckoutCmd(c),
		newOrdersCmd(c),
	)
	return root, c
}

// init loads the catalog. The database is opened on first use so catalog
// commands work without one.
func (c *cli) init() error {
	c.logger = logger.NewText(c.logLevel, c.errOut)

	var err error
	if c.catalogPath == "" {
		c.catalog, err = catalog.Default()
	} else {
		c.catalog, err = catalog.Load(c.catalogPath)
	}
	if err != nil {
		return err
	}
	c.calc = pricing.NewCalculator(c.catalog)

	c.bus = event.NewBus(c.logger)
	if c.verbose {
		c.bus.Subscribe(func(_ context.Context, e event.Event) error {
			_, err := fmt.Fprintf(c.errOut, "%s count=%d\n", e.Name, e.Count)
			return err
		})
	}
	return nil
}

// stores opens the database and builds the cart and order stores.
func (c *cli) stores() (*cart.Store, *checkout.OrderBook, error) {
	if c.cart != nil {
		return c.cart, c.orders, nil
	}

	db, err := sqlite.Open(c.dbPath)
	if err != nil {
		return nil, nil, err
	}
	c.db = db

	if c.sessionID == "" {
		c.cart = cart.NewStore(db, c.calc, c.bus, c.logger)
		c.orders = checkout.NewOrderBook(db, c.logger)
		return c.cart, c.orders, nil
	}

	sess, err := session.NewManager(db, c.calc, c.bus, c.logger).Session(c.sessionID)
	if err != nil {
		return nil, nil, err
	}
	c.cart, c.orders = sess.Cart, sess.Orders
	return c.cart, c.orders, nil
}

func (c *cli) close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db, c.cart, c.orders = nil, nil, nil
	return err
}
