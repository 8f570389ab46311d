// Package cache wraps the optional Redis client. A Guard built without a
// client lets every call through.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Guard struct {
	rdb    *redis.Client
	prefix string
}

func NewGuard(rdb *redis.Client) *Guard {
	return &Guard{rdb: rdb, prefix: "studio:"}
}

// Connect parses a redis:// URL and pings the server. An empty URL returns a
// nil client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (g *Guard) Enabled() bool {
	return g != nil && g.rdb != nil
}

// Acquire sets key for ttl if it is not set yet and reports whether this call
// set it.
func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire %s: %w", key, err)
	}
	return ok, nil
}

func (g *Guard) Release(ctx context.Context, key string) error {
	if !g.Enabled() {
		return nil
	}
	if err := g.rdb.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// Hit increments a counter that expires window after its first hit and
// returns the new count.
func (g *Guard) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !g.Enabled() {
		return 0, nil
	}
	k := g.prefix + key
	pipe := g.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (g *Guard) Reset(ctx context.Context, key string) error {
	return g.Release(ctx, key)
}

// Ping checks the Redis connection. A disabled guard has nothing to check.
func (g *Guard) Ping(ctx context.Context) error {
	if !g.Enabled() {
		return nil
	}
	return g.rdb.Ping(ctx).Err()
}
