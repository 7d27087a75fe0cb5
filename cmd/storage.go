package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/database/postgres"
	"github.com/kozaktomas/skinstric/internal/database/rediskv"
	"github.com/kozaktomas/skinstric/internal/database/sqlite"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"go.uber.org/zap"
)

// redisKeyTTL is longer than the 24h session lifetime.
const redisKeyTTL = 48 * time.Hour

// openStore builds the configured storage backend. Persistent backends also
// return a session repository so visitors keep their ID across restarts.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (database.KV, middleware.SessionRepository, error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		logger.Info("using in-memory storage; visitor state is lost on restart")
		return database.NewMemoryKV(), nil, nil

	case "postgres":
		if cfg.Database.URL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres backend")
		}
		pool, applied, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		for _, m := range applied {
			logger.Info("applied migration", zap.String("file", m))
		}
		logger.Info("using PostgreSQL storage with session persistence")
		return postgres.NewKVRepository(pool), postgres.NewSessionRepository(pool), nil

	case "redis":
		kv, err := rediskv.Open(ctx, cfg.Storage.RedisURL, redisKeyTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		logger.Info("using Redis storage with session persistence", zap.Duration("ttl", redisKeyTTL))
		return kv, rediskv.NewSessionRepository(kv), nil

	case "sqlite":
		kv, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		logger.Info("using SQLite storage with session persistence", zap.String("path", cfg.Storage.SQLitePath))
		return kv, sqlite.NewSessionRepository(kv), nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want memory, postgres, redis or sqlite)", cfg.Storage.Backend)
	}
}
