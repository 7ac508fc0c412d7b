// Package store holds the persistence backends behind the cache layer. All
// backends share one contract so they can be swapped by configuration.
package store

import (
	"context"
	"time"
)

// Entry is one serialized cache value.
type Entry struct {
	Key       string    `json:"key" bson:"_id"`
	Value     []byte    `json:"value" bson:"value"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// nanos and fromNanos convert times for backends that store Unix
// nanoseconds; the zero time maps to 0 and back.
func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Stats summarises the live entries of a backend or cache.
type Stats struct {
	Count           int       `json:"count"`
	Oldest          time.Time `json:"oldest"`
	Newest          time.Time `json:"newest"`
	ApproxSizeBytes int64     `json:"approx_size_bytes"`
}

// Backend persists entries. Get returns errors.ErrNotFound for missing or
// expired keys; Put replaces any existing entry atomically.
type Backend interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, key string) error
	// Cleanup removes expired entries and reports how many were removed.
	Cleanup(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
