// Package cache shares fetched corpus snapshots between service instances.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/config"
	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/store"
)

const pingTimeout = 3 * time.Second

// RedisSnapshotCache stores the whole snapshot as one JSON value under a fixed key.
type RedisSnapshotCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotCache connects to Redis and verifies the connection.
func NewRedisSnapshotCache(cfg config.RedisConfig) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: pingTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	logging.L().Info("connected to Redis snapshot cache", zap.String("addr", cfg.Addr), zap.String("key", cfg.Key))
	return NewRedisSnapshotCacheWithClient(client, cfg.Key, cfg.TTL), nil
}

// NewRedisSnapshotCacheWithClient wraps an existing client.
func NewRedisSnapshotCacheWithClient(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, key: key, ttl: ttl}
}

// Get returns the cached snapshot or errors.ErrCacheMiss.
func (c *RedisSnapshotCache) Get(ctx context.Context) (*store.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores snap with the configured TTL.
func (c *RedisSnapshotCache) Set(ctx context.Context, snap *store.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot cache nil snapshot")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached snapshot: %w", err)
	}
	return nil
}

// Invalidate removes the cached snapshot.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}
