package cache

import (
	"github.com/btp-erp/backend/internal/application/analytics"
	"github.com/btp-erp/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewStatsCache returns a Redis-backed cache when Redis is enabled and
// reachable, and an in-memory cache otherwise. The cleanup func closes any
// connection it opened.
func NewStatsCache(cfg config.RedisConfig, logger *zap.Logger) (analytics.Cache, func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory stats cache")
		return NewMemoryStatsCache(), func() {}
	}

	redisCache, err := NewRedisStatsCache(RedisConfig{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, falling back to in-memory stats cache. "+
			"Instances will not share cached figures.",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewMemoryStatsCache(), func() {}
	}

	logger.Info("using redis stats cache", zap.String("addr", cfg.Addr()))
	return redisCache, func() { _ = redisCache.Close() }
}

var (
	_ analytics.Cache = (*RedisStatsCache)(nil)
	_ analytics.Cache = (*MemoryStatsCache)(nil)
)
