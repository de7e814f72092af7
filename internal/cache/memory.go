package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache. Used by tests and as a fallback when the
// on-disk cache cannot be opened.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Compile-time check that Memory implements Cache.
var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or ErrMiss when absent or expired.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().After(e.expiresAt) {
		return "", ErrMiss
	}
	return e.value, nil
}

// Set stores value under key with the given TTL.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory cache.
func (m *Memory) Close() error { return nil }
