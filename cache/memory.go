package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryOptions configures a Memory cache.
type MemoryOptions struct {
	// Capacity caps the number of entries; 0 means 1024.
	Capacity int
	// CleanupInterval is the janitor's sweep period; 0 means one minute.
	CleanupInterval time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

type memEntry[V any] struct {
	Entry[V]
	element *list.Element
}

// Memory is an in-process TTL cache with LRU ordering. All state sits under
// one mutex. Going over capacity signals a janitor goroutine that evicts the
// least recently used entries; eviction is not synchronous with Put.
type Memory[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*memEntry[V]
	order    *list.List // front is most recently used
	now      func() time.Time

	overflow  chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemory creates a Memory cache and starts its janitor. Call Close to stop it.
func NewMemory[V any](opts MemoryOptions) *Memory[V] {
	m := newMemory[V](opts)
	m.wg.Add(1)
	go m.janitor(opts.CleanupInterval)
	return m
}

func newMemory[V any](opts MemoryOptions) *Memory[V] {
	if opts.Capacity <= 0 {
		opts.Capacity = 1024
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Memory[V]{
		capacity: opts.Capacity,
		items:    make(map[string]*memEntry[V], opts.Capacity),
		order:    list.New(),
		now:      opts.Now,
		overflow: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	return m
}

func (m *Memory[V]) janitor(interval time.Duration) {
	defer m.wg.Done()
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.Cleanup(context.Background())
		case <-m.overflow:
			m.mu.Lock()
			m.evictOverflow()
			m.mu.Unlock()
		}
	}
}

// Get returns the live value for key and marks it recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ent, ok := m.items[key]; ok {
		if !ent.Expired(m.now()) {
			m.order.MoveToFront(ent.element)
			return ent.Value, true
		}
		m.removeEntry(ent)
	}
	var zero V
	return zero, false
}

// Put stores value under key, replacing any existing entry.
func (m *Memory[V]) Put(_ context.Context, key string, value V, ttl time.Duration) {
	m.mu.Lock()
	now := m.now()
	if ent, ok := m.items[key]; ok {
		ent.Value = value
		ent.CreatedAt = now
		ent.ExpiresAt = expiry(now, ttl)
		m.order.MoveToFront(ent.element)
		m.mu.Unlock()
		return
	}
	elem := m.order.PushFront(key)
	m.items[key] = &memEntry[V]{
		Entry:   Entry[V]{Key: key, Value: value, CreatedAt: now, ExpiresAt: expiry(now, ttl)},
		element: elem,
	}
	over := len(m.items) > m.capacity
	m.mu.Unlock()

	if over {
		select {
		case m.overflow <- struct{}{}:
		default:
		}
	}
}

// Delete removes key.
func (m *Memory[V]) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ent, ok := m.items[key]; ok {
		m.removeEntry(ent)
	}
}

// Cleanup removes expired entries, then trims to capacity.
func (m *Memory[V]) Cleanup(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for _, ent := range m.items {
		if ent.Expired(now) {
			m.removeEntry(ent)
			removed++
		}
	}
	return removed + m.evictOverflow()
}

// Stats reports live entries. Size is the JSON-encoded size of the values.
func (m *Memory[V]) Stats(_ context.Context) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var st Stats
	for _, ent := range m.items {
		if ent.Expired(now) {
			continue
		}
		st.Count++
		if data, err := json.Marshal(ent.Value); err == nil {
			st.ApproxSizeBytes += int64(len(data))
		}
		st.ApproxSizeBytes += int64(len(ent.Key))
		if st.Oldest.IsZero() || ent.CreatedAt.Before(st.Oldest) {
			st.Oldest = ent.CreatedAt
		}
		if ent.CreatedAt.After(st.Newest) {
			st.Newest = ent.CreatedAt
		}
	}
	return st
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. It is safe to call more than once.
func (m *Memory[V]) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
	return nil
}

// evictOverflow must be called with mu held.
func (m *Memory[V]) evictOverflow() int {
	n := 0
	for len(m.items) > m.capacity {
		elem := m.order.Back()
		if elem == nil {
			break
		}
		if ent, ok := m.items[elem.Value.(string)]; ok {
			m.removeEntry(ent)
			n++
		} else {
			m.order.Remove(elem)
		}
	}
	return n
}

func (m *Memory[V]) removeEntry(ent *memEntry[V]) {
	if ent.element != nil {
		m.order.Remove(ent.element)
	}
	delete(m.items, ent.Key)
}
