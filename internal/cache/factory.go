package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/superdoll/tracker-api/internal/config"
	"go.uber.org/zap"
)

// NewStore builds the configured Store. When Redis is disabled the in-memory
// store is returned. When Redis is enabled but unreachable, the in-memory
// store is used only if AllowFallback is set.
func NewStore(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (Store, error) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory read-model store")
		return NewMemoryStore(), nil
	}

	store, err := NewRedisStore(ctx, &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, cfg.KeyPrefix)
	if err == nil {
		logger.Info("Using Redis read-model store", zap.String("addr", cfg.Addr()))
		return store, nil
	}

	if !cfg.AllowFallback {
		return nil, fmt.Errorf("redis required for read-model store but unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory read-model store. "+
		"Caches are not shared between instances.",
		zap.Error(err),
	)
	return NewMemoryStore(), nil
}
