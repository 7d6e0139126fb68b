package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/utafrali/ecocart/pkg/config"
	"github.com/utafrali/ecocart/pkg/database"
	"github.com/utafrali/ecocart/pkg/tracing"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var drivers = []string{DriverMemory, DriverRedis, DriverPostgres, DriverSQLite}

// Config holds all configuration for the ecocart server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"ECOCART_HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	// Set only behind a reverse proxy that overwrites X-Forwarded-For.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Storage
	StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"memory"`
	BreakerEnabled bool   `env:"BREAKER_ENABLED" envDefault:"true"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Session TTL in hours for expiring backends (default: 30 days)
	SessionTTL int `env:"SESSION_TTL_HOURS" envDefault:"720"`

	// PostgreSQL
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"ecocart"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"ecocart"`
	DBName     string `env:"DB_NAME" envDefault:"ecocart"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// SQLite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"ecocart.db"`

	// Catalog; empty path means the built-in products
	CatalogPath  string `env:"CATALOG_PATH" envDefault:""`
	CatalogWatch bool   `env:"CATALOG_WATCH" envDefault:"false"`

	CheckoutDelay        time.Duration `env:"CHECKOUT_DELAY" envDefault:"900ms"`
	ContactRatePerMinute int           `env:"CONTACT_RATE_PER_MINUTE" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load ecocart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains(drivers, c.StorageDriver) {
		return fmt.Errorf("invalid storage driver %q (want one of %v)", c.StorageDriver, drivers)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("invalid session TTL: %d hours", c.SessionTTL)
	}
	if c.CheckoutDelay < 0 {
		return fmt.Errorf("invalid checkout delay: %s", c.CheckoutDelay)
	}
	if c.ContactRatePerMinute < 1 {
		return fmt.Errorf("invalid contact rate: %d per minute", c.ContactRatePerMinute)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("invalid OTEL sample rate: %v", c.OTELSampleRate)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("kafka enabled without brokers")
	}
	if c.CatalogWatch && c.CatalogPath == "" {
		return fmt.Errorf("CATALOG_WATCH requires CATALOG_PATH")
	}
	return nil
}

// SessionTTLDuration converts SessionTTL to a duration; zero disables expiry.
func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}

// Postgres returns the pool settings for the postgres driver.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.DBHost
	pg.Port = c.DBPort
	pg.User = c.DBUser
	pg.Password = c.DBPassword
	pg.DBName = c.DBName
	pg.SSLMode = c.DBSSLMode
	return pg
}

// Redis returns the client settings for the redis driver.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPass, DB: c.RedisDB}
}

// Tracing returns the tracer settings.
func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig("ecocart")
	tc.Environment = c.Environment
	tc.Enabled = c.OTELEnabled
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	return tc
}
