package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpLLMCall("fast"), 100*time.Millisecond)
	c.RecordTiming(OpLLMCall("fast"), 300*time.Millisecond)

	snap := c.Snapshot()
	if len(snap.Operations) != 1 {
		t.Fatalf("Operations = %v, want one entry", snap.Operations)
	}

	op := snap.Operations[0]
	if op.Name != "llm_fast" {
		t.Errorf("Name = %q, want llm_fast", op.Name)
	}
	if op.Count != 2 {
		t.Errorf("Count = %d, want 2", op.Count)
	}
	if op.MinTimeMs != 100 || op.MaxTimeMs != 300 {
		t.Errorf("Min/Max = %d/%d, want 100/300", op.MinTimeMs, op.MaxTimeMs)
	}
	if op.AvgTimeMs != 200 {
		t.Errorf("AvgTimeMs = %v, want 200", op.AvgTimeMs)
	}
}

func TestCacheCounters(t *testing.T) {
	c := NewCollector()
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordPersistFailure()

	snap := c.Snapshot()
	if snap.CacheHits != 2 {
		t.Errorf("CacheHits = %d, want 2", snap.CacheHits)
	}
	if snap.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", snap.CacheMisses)
	}
	if snap.PersistFailures != 1 {
		t.Errorf("PersistFailures = %d, want 1", snap.PersistFailures)
	}
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpStage("discovery"), time.Millisecond)
				c.RecordCacheHit()
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.CacheHits != 1000 {
		t.Errorf("CacheHits = %d, want 1000", snap.CacheHits)
	}
	if snap.Operations[0].Count != 1000 {
		t.Errorf("Count = %d, want 1000", snap.Operations[0].Count)
	}
}
