package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/agri-advisor/errors"
)

// Hash fields of one cached entry.
const (
	fieldValue   = "v"
	fieldCreated = "c"
	fieldExpires = "x"
)

// RedisStore keeps each entry in a hash that Redis expires itself, plus a
// sorted set of keys scored by creation time for Stats and Cleanup.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. Closing the store closes it.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "agri:cache:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// DialRedis connects to a single Redis server and checks it answers.
func DialRedis(ctx context.Context, opts *redis.Options, prefix string) (*RedisStore, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", opts.Addr, err)
	}
	return NewRedisStore(rdb, prefix), nil
}

func (s *RedisStore) entryKey(k string) string { return s.prefix + "e:" + k }
func (s *RedisStore) index() string           { return s.prefix + "idx" }

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	fields, err := s.rdb.HGetAll(ctx, s.entryKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("cache key %q: %w", key, errors.ErrNotFound)
	}
	e := &Entry{
		Key:       key,
		Value:     []byte(fields[fieldValue]),
		CreatedAt: unixNanos(fields[fieldCreated]),
		ExpiresAt: unixNanos(fields[fieldExpires]),
	}
	if e.Expired(time.Now()) {
		return nil, fmt.Errorf("cache key %q expired: %w", key, errors.ErrNotFound)
	}
	return e, nil
}

func unixNanos(s string) time.Time {
	n, _ := strconv.ParseInt(s, 10, 64)
	return fromNanos(n)
}

// Put replaces the hash and its index member in one MULTI block. An entry
// that is already expired is deleted instead.
func (s *RedisStore) Put(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("cache entry without key: %w", errors.ErrInvalidInput)
	}
	if entry.Expired(time.Now()) {
		return s.Delete(ctx, entry.Key)
	}
	k := s.entryKey(entry.Key)
	_, err := s.rdb.TxPipelined(ctx, func(tx redis.Pipeliner) error {
		tx.Del(ctx, k)
		tx.HSet(ctx, k,
			fieldValue, entry.Value,
			fieldCreated, nanos(entry.CreatedAt),
			fieldExpires, nanos(entry.ExpiresAt),
		)
		if !entry.ExpiresAt.IsZero() {
			tx.PExpireAt(ctx, k, entry.ExpiresAt)
		}
		tx.ZAdd(ctx, s.index(), redis.Z{Score: float64(nanos(entry.CreatedAt)), Member: entry.Key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %q: %w", entry.Key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := s.rdb.TxPipelined(ctx, func(tx redis.Pipeliner) error {
		tx.Del(ctx, s.entryKey(key))
		tx.ZRem(ctx, s.index(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Cleanup removes index members whose hash Redis has already expired.
func (s *RedisStore) Cleanup(ctx context.Context) (int, error) {
	keys, err := s.rdb.ZRange(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis index: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	checks := make([]*redis.IntCmd, len(keys))
	if _, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			checks[i] = p.Exists(ctx, s.entryKey(k))
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("redis exists: %w", err)
	}
	stale := make([]any, 0, len(keys))
	for i, c := range checks {
		if c.Val() == 0 {
			stale = append(stale, keys[i])
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.rdb.ZRem(ctx, s.index(), stale...).Err(); err != nil {
		return 0, fmt.Errorf("redis prune index: %w", err)
	}
	return len(stale), nil
}

// Stats prunes the index first so expired keys are not counted.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	if _, err := s.Cleanup(ctx); err != nil {
		return Stats{}, err
	}
	zs, err := s.rdb.ZRangeWithScores(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis index: %w", err)
	}
	if len(zs) == 0 {
		return Stats{}, nil
	}
	st := Stats{
		Count:  len(zs),
		Oldest: time.Unix(0, int64(zs[0].Score)),
		Newest: time.Unix(0, int64(zs[len(zs)-1].Score)),
	}
	lens := make([]*redis.IntCmd, len(zs))
	if _, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, z := range zs {
			lens[i] = p.HStrLen(ctx, s.entryKey(fmt.Sprint(z.Member)), fieldValue)
		}
		return nil
	}); err != nil {
		return Stats{}, fmt.Errorf("redis sizes: %w", err)
	}
	for _, l := range lens {
		st.ApproxSizeBytes += l.Val()
	}
	return st, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
