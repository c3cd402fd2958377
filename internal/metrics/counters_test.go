package metrics

import (
	"sync"
	"testing"
)

func TestCounters_Accumulate(t *testing.T) {
	c := NewCounters()
	c.Inc(EventDiscoveries)
	c.Add(EventDiscoveries, 2)
	c.Inc(SkipEvent(SkipNoTelegram))

	if got := c.Get(EventDiscoveries); got != 3 {
		t.Errorf("discoveries = %d, want 3", got)
	}
	if got := c.Get(SkipEvent(SkipNoTelegram)); got != 1 {
		t.Errorf("skipped_no_telegram = %d, want 1", got)
	}
	if got := c.Get("never_recorded"); got != 0 {
		t.Errorf("unknown event = %d, want 0", got)
	}
}

func TestCounters_SnapshotIsCopy(t *testing.T) {
	c := NewCounters()
	c.Inc(EventNotified)

	snap := c.Snapshot()
	snap[EventNotified] = 100

	if got := c.Get(EventNotified); got != 1 {
		t.Errorf("mutating a snapshot leaked into counters: %d", got)
	}
}

func TestCounters_Concurrent(t *testing.T) {
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Inc(EventProcessed)
			}
		}()
	}
	wg.Wait()

	if got := c.Get(EventProcessed); got != 1000 {
		t.Errorf("processed = %d, want 1000", got)
	}
}
