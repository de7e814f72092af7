// Package cache provides the TTL'd key-value memoization layer used for
// LLM responses and fundamentals lookups. Absence is always safe; presence
// must be semantically equivalent to re-computing the value.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a pure memoization store. Implementations must support
// concurrent reads and last-writer-wins concurrent writes.
type Cache interface {
	// Get returns the cached value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Close releases any underlying resources.
	Close() error
}
