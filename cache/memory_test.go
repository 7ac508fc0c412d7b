package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestMemory has no janitor, so eviction only happens in Cleanup.
func newTestMemory[V any](t *testing.T, capacity int, clock *fakeClock) *Memory[V] {
	t.Helper()
	m := newMemory[V](MemoryOptions{Capacity: capacity, CleanupInterval: time.Hour, Now: clock.Now})
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMemoryTTLRoundTrip(t *testing.T) {
	clock := newFakeClock()
	m := newTestMemory[string](t, 10, clock)
	ctx := context.Background()

	m.Put(ctx, "weather|maharashtra|pune|", "sunny", time.Hour)

	clock.Advance(59 * time.Minute)
	if v, ok := m.Get(ctx, "weather|maharashtra|pune|"); !ok || v != "sunny" {
		t.Fatalf("Expected hit before ttl, got %q, %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := m.Get(ctx, "weather|maharashtra|pune|"); ok {
		t.Fatal("Expected miss at ttl")
	}
	if m.Len() != 0 {
		t.Errorf("Expected expired entry to be removed on read, have %d", m.Len())
	}
}

func TestMemoryPutReplacesValueAndTTL(t *testing.T) {
	clock := newFakeClock()
	m := newTestMemory[int](t, 10, clock)
	ctx := context.Background()

	m.Put(ctx, "k", 1, time.Minute)
	m.Put(ctx, "k", 2, time.Hour)
	clock.Advance(30 * time.Minute)

	v, ok := m.Get(ctx, "k")
	if !ok || v != 2 {
		t.Errorf("Expected replaced value 2 with the new ttl, got %d, %v", v, ok)
	}
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	m := newTestMemory[int](t, 10, clock)
	m.Put(context.Background(), "k", 7, 0)
	clock.Advance(365 * 24 * time.Hour)
	if _, ok := m.Get(context.Background(), "k"); !ok {
		t.Error("Expected entry without ttl to survive")
	}
}

func TestMemoryCleanupEvictsExpiredAndOldest(t *testing.T) {
	clock := newFakeClock()
	m := newTestMemory[int](t, 3, clock)
	ctx := context.Background()

	m.Put(ctx, "short", 0, time.Minute)
	for i := 1; i <= 4; i++ {
		m.Put(ctx, fmt.Sprintf("k%d", i), i, time.Hour)
	}
	// k1 is touched so k2 becomes least recently used.
	m.Get(ctx, "k1")
	clock.Advance(2 * time.Minute)

	removed := m.Cleanup(ctx)
	if removed != 2 {
		t.Fatalf("Expected 2 removed (1 expired, 1 evicted), got %d", removed)
	}
	if _, ok := m.Get(ctx, "k2"); ok {
		t.Error("Expected least recently used k2 to be evicted")
	}
	for _, k := range []string{"k1", "k3", "k4"} {
		if _, ok := m.Get(ctx, k); !ok {
			t.Errorf("Expected %s to survive", k)
		}
	}
}

func TestMemoryJanitorEvictsOnOverflow(t *testing.T) {
	m := NewMemory[int](MemoryOptions{Capacity: 2, CleanupInterval: time.Hour})
	defer m.Close()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		m.Put(ctx, fmt.Sprintf("k%d", i), i, time.Hour)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() > 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := m.Len(); n > 2 {
		t.Errorf("Expected janitor to trim to capacity, have %d", n)
	}
}

func TestMemoryStats(t *testing.T) {
	clock := newFakeClock()
	m := newTestMemory[string](t, 10, clock)
	ctx := context.Background()

	m.Put(ctx, "a", "x", time.Hour)
	clock.Advance(time.Second)
	m.Put(ctx, "b", "y", time.Minute)
	clock.Advance(2 * time.Minute)

	st := m.Stats(ctx)
	if st.Count != 1 {
		t.Errorf("Expected 1 live entry, got %d", st.Count)
	}
	if st.ApproxSizeBytes == 0 {
		t.Error("Expected non-zero size")
	}
	if !st.Oldest.Equal(st.Newest) {
		t.Errorf("Expected oldest == newest for one entry, got %v and %v", st.Oldest, st.Newest)
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory[int](MemoryOptions{Capacity: 50, CleanupInterval: time.Millisecond})
	defer m.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*i)%80)
				m.Put(ctx, key, i, time.Millisecond*time.Duration(i%5))
				m.Get(ctx, key)
				if i%50 == 0 {
					m.Cleanup(ctx)
					m.Stats(ctx)
				}
			}
		}(g)
	}
	wg.Wait()
	m.Cleanup(ctx)
	if m.Len() > 50 {
		t.Errorf("Expected at most 50 entries after cleanup, have %d", m.Len())
	}
}

func TestMemoryCloseStopsJanitor(t *testing.T) {
	defer goleak.VerifyNone(t)
	m := NewMemory[int](MemoryOptions{CleanupInterval: time.Millisecond})
	m.Put(context.Background(), "k", 1, time.Second)
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
