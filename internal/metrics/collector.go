// Package metrics provides in-memory runtime statistics for the daily run:
// LLM call timings per tier, cache hit rates, stage durations and
// persistence failures.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpEmbedding  = "embedding"
	OpStoreRead  = "store_read"
	OpStoreWrite = "store_write"
)

// OpLLMCall returns the operation name for an LLM call on the given tier.
func OpLLMCall(tier string) string { return "llm_" + tier }

// OpStage returns the operation name for a pipeline stage.
func OpStage(stage string) string { return "stage_" + stage }

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Name        string
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the full run statistics at a point in time.
type Snapshot struct {
	UptimeSeconds   float64
	CacheHits       int64
	CacheMisses     int64
	PersistFailures int64
	Operations      []OperationSnapshot
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	cacheHits       int64
	cacheMisses     int64
	persistFailures int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordCacheHit counts one gateway or fundamentals cache hit.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

// RecordCacheMiss counts one cache miss.
func (c *Collector) RecordCacheMiss() {
	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()
}

// RecordPersistFailure counts one failed store write. Persistence failures
// are non-fatal but must be distinguishable from successful stores.
func (c *Collector) RecordPersistFailure() {
	c.mu.Lock()
	c.persistFailures++
	c.mu.Unlock()
}

// Snapshot returns the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds:   time.Since(c.startTime).Seconds(),
		CacheHits:       c.cacheHits,
		CacheMisses:     c.cacheMisses,
		PersistFailures: c.persistFailures,
	}

	for name, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		snap.Operations = append(snap.Operations, OperationSnapshot{
			Name:        name,
			Count:       m.Count,
			TotalTimeMs: m.TotalTime.Milliseconds(),
			AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
			MinTimeMs:   m.MinTime.Milliseconds(),
			MaxTimeMs:   m.MaxTime.Milliseconds(),
		})
	}

	return snap
}
