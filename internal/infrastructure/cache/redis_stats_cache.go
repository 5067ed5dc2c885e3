package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "btp:stats:"

// RedisStatsCache stores aggregation results in Redis as JSON.
// Keys are namespaced by a generation counter; Invalidate bumps the counter
// so every previously written entry becomes unreachable and expires on its
// own TTL.
type RedisStatsCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStatsCache connects to Redis and verifies the connection
func NewRedisStatsCache(cfg RedisConfig) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStatsCacheWithClient(client, ""), nil
}

// NewRedisStatsCacheWithClient creates a cache over an existing client
func NewRedisStatsCacheWithClient(client *redis.Client, keyPrefix string) *RedisStatsCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStatsCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisStatsCache) generationKey() string {
	return c.keyPrefix + "generation"
}

func (c *RedisStatsCache) entryKey(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s%d:%s", c.keyPrefix, gen, key), nil
}

// Get loads key into dest. It reports false on a miss.
func (c *RedisStatsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	k, err := c.entryKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read cache generation: %w", err)
	}
	raw, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cached stats: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	return true, nil
}

// Set stores value under key for ttl
func (c *RedisStatsCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	k, err := c.entryKey(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read cache generation: %w", err)
	}
	return c.client.Set(ctx, k, raw, ttl).Err()
}

// Invalidate makes every cached entry unreachable
func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

// Ping checks the Redis connection
func (c *RedisStatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}
