// Package cache provides the Redis-backed response cache, the token
// blacklist, and the rate limiter counters. A Store abstracts the backend so
// tests run against an in-memory implementation.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// DelPattern removes every key matching the glob pattern.
	DelPattern(ctx context.Context, pattern string) error
	// Incr increments key and returns the new value. The ttl is applied only
	// when the increment creates the key, giving fixed-window semantics.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
