package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts requests in Redis so the quota holds across gateway
// instances. Keys expire with the window; Redis owns all bucket state.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides the key namespace (default "ratelimit").
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implements Store. INCR creates the bucket on first use; EXPIRE NX
// pins the window to the first request so refreshes within the window never
// extend it.
func (s *RedisStore) Check(ctx context.Context, key string, limit Limit) (Result, error) {
	k := s.prefix + ":" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, limit.Window)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}

	remainingWindow := ttl.Val()
	if remainingWindow <= 0 {
		remainingWindow = limit.Window
	}

	count := int(incr.Val())
	if count > limit.Max {
		return Result{
			Allowed:    false,
			RetryAfter: ceilSeconds(remainingWindow),
			Remaining:  0,
		}, nil
	}

	return Result{
		Allowed:    true,
		RetryAfter: ceilSeconds(remainingWindow),
		Remaining:  max(limit.Max-count, 0),
	}, nil
}

// Ping verifies connectivity, used by the serve command at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}
