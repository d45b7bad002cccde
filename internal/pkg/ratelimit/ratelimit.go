// Package ratelimit provides request rate limiting behind a small interface.
//
// The production implementation is a fixed-window counter backed by Redis so
// limits hold across replicas.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is the number of requests left in the current window.
	Remaining int64
	// RetryAfter is how long the caller should wait before retrying.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	// Allow consumes one slot for the key and returns the decision.
	Allow(ctx context.Context, key string) (Decision, error)
}

// FixedWindow is a Redis-backed fixed-window Limiter.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewFixedWindow constructs a FixedWindow limiter.
//
// A non-positive limit falls back to 60 and a non-positive window to one
// minute.
func NewFixedWindow(client *redis.Client, prefix string, limit int64, window time.Duration) *FixedWindow {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &FixedWindow{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow increments the window counter for key and checks it against the limit.
func (f *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:{%s}", f.prefix, key)

	count, err := f.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: incr: %w", err)
	}

	// First hit opens the window.
	if count == 1 {
		if err := f.client.Expire(ctx, redisKey, f.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}

	if count > f.limit {
		ttl, err := f.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = f.window
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}

	return Decision{Allowed: true, Remaining: f.limit - count}, nil
}
