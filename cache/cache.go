// Package cache provides TTL caches for retrieved datasets and finished
// responses. Memory keeps values in process; Remote serializes them into a
// store.Backend. Both satisfy Cache.
package cache

import (
	"context"
	"time"

	"github.com/sweetpotato0/agri-advisor/cache/store"
)

// Stats summarises live entries.
type Stats = store.Stats

// Cache is a concurrency-safe TTL cache. A read after an entry's expiry is a
// miss. Put on an existing key replaces value and ttl together; a ttl <= 0
// means no expiry.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, value V, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Cleanup removes expired entries (and over-capacity entries for
	// bounded caches), returning how many were removed.
	Cleanup(ctx context.Context) int
	Stats(ctx context.Context) Stats
	Close() error
}

// Entry is one cached value.
type Entry[V any] struct {
	Key       string
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether e is past its expiry at now.
func (e *Entry[V]) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
