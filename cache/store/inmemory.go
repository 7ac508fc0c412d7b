package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweetpotato0/agri-advisor/errors"
)

// InMemoryStore implements Backend with a map. It is the default for tests
// and for deployments without a database.
type InMemoryStore struct {
	entries map[string]*Entry
	mu      sync.RWMutex
	now     func() time.Time
}

// NewInMemoryStore creates a new in-memory backend.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*Entry), now: time.Now}
}

// Get returns a copy of the live entry for key.
func (s *InMemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cache key %q: %w", key, errors.ErrNotFound)
	}
	if e.Expired(s.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("cache key %q expired: %w", key, errors.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

// Put stores a copy of entry.
func (s *InMemoryStore) Put(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("cache entry without key: %w", errors.ErrInvalidInput)
	}
	cp := *entry
	s.mu.Lock()
	s.entries[entry.Key] = &cp
	s.mu.Unlock()
	return nil
}

// Delete removes key.
func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Cleanup removes expired entries.
func (s *InMemoryStore) Cleanup(ctx context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Stats reports live entries only.
func (s *InMemoryStore) Stats(ctx context.Context) (Stats, error) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	for _, e := range s.entries {
		if e.Expired(now) {
			continue
		}
		st.Count++
		st.ApproxSizeBytes += int64(len(e.Key) + len(e.Value))
		if st.Oldest.IsZero() || e.CreatedAt.Before(st.Oldest) {
			st.Oldest = e.CreatedAt
		}
		if e.CreatedAt.After(st.Newest) {
			st.Newest = e.CreatedAt
		}
	}
	return st, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
