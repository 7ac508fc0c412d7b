package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sweetpotato0/agri-advisor/cache/store"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
)

// Remote stores JSON-encoded values in a store.Backend. Backend failures
// are logged and surface as misses; the cache never fails a request.
type Remote[V any] struct {
	backend store.Backend
	prefix  string
	log     *slog.Logger
	now     func() time.Time
}

// NewRemote wraps backend. prefix namespaces keys so several caches can
// share one backend.
func NewRemote[V any](backend store.Backend, prefix string) *Remote[V] {
	return &Remote[V]{
		backend: backend,
		prefix:  prefix,
		log:     logging.WithComponent("cache"),
		now:     time.Now,
	}
}

func (r *Remote[V]) key(k string) string { return r.prefix + k }

// Get decodes the live value for key.
func (r *Remote[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	e, err := r.backend.Get(ctx, r.key(key))
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			r.log.Warn("cache read failed", "key", key, "error", err)
		}
		return zero, false
	}
	if e.Expired(r.now()) {
		return zero, false
	}
	var v V
	if err := json.Unmarshal(e.Value, &v); err != nil {
		r.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = r.backend.Delete(ctx, r.key(key))
		return zero, false
	}
	return v, true
}

// Put encodes value and upserts it.
func (r *Remote[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		r.log.Warn("cache value not encodable", "key", key, "error", err)
		return
	}
	now := r.now()
	entry := &store.Entry{Key: r.key(key), Value: data, CreatedAt: now, ExpiresAt: expiry(now, ttl)}
	if err := r.backend.Put(ctx, entry); err != nil {
		r.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// Delete removes key.
func (r *Remote[V]) Delete(ctx context.Context, key string) {
	if err := r.backend.Delete(ctx, r.key(key)); err != nil {
		r.log.Warn("cache delete failed", "key", key, "error", err)
	}
}

// Cleanup asks the backend to drop expired entries.
func (r *Remote[V]) Cleanup(ctx context.Context) int {
	n, err := r.backend.Cleanup(ctx)
	if err != nil {
		r.log.Warn("cache cleanup failed", "error", err)
	}
	return n
}

// Stats reports backend statistics (all namespaces sharing the backend).
func (r *Remote[V]) Stats(ctx context.Context) Stats {
	st, err := r.backend.Stats(ctx)
	if err != nil {
		r.log.Warn("cache stats failed", "error", err)
	}
	return st
}

// Close closes the backend.
func (r *Remote[V]) Close() error {
	return r.backend.Close()
}
