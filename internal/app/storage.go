package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ecocart/internal/config"
	"github.com/utafrali/ecocart/internal/storage"
	"github.com/utafrali/ecocart/internal/storage/postgres"
	redisstore "github.com/utafrali/ecocart/internal/storage/redis"
	"github.com/utafrali/ecocart/internal/storage/sqlite"
	"github.com/utafrali/ecocart/pkg/database"
)

// openStorage connects the configured backend. The returned close function
// releases its connections and is never nil.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, func() error, error) {
	var (
		s       storage.Storage
		closeFn = func() error { return nil }
	)

	switch cfg.StorageDriver {
	case config.DriverMemory:
		return storage.NewMemory(), closeFn, nil

	case config.DriverRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, nil, err
		}
		s, closeFn = redisstore.New(client, cfg.SessionTTLDuration()), client.Close
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)

	case config.DriverPostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		s, closeFn = store, func() error { pool.Close(); return nil }
		logger.Info("connected to PostgreSQL",
			slog.String("host", pgCfg.Host),
			slog.String("database", pgCfg.DBName),
		)

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s, closeFn = store, store.Close
		logger.Info("opened SQLite database", slog.String("path", store.Path()))

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.BreakerEnabled {
		s = storage.NewBreaker(s, storage.DefaultBreakerConfig(cfg.StorageDriver), logger)
	}
	return s, closeFn, nil
}
