package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/pkg/sqldb"
)

// DefaultTable is the cache table used when none is configured.
const DefaultTable = "advisor_cache"

// SQLStore implements Backend on PostgreSQL or SQLite. Times are stored as
// Unix nanoseconds so both engines share one schema; expires_at 0 means the
// entry never expires.
type SQLStore struct {
	db    *sql.DB
	d     sqldb.Dialect
	table string
	now   func() time.Time
}

// NewSQLStore creates the cache table on db if needed. The store owns db.
func NewSQLStore(ctx context.Context, db *sql.DB, d sqldb.Dialect, table string) (*SQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := sqldb.CheckTable(table); err != nil {
		return nil, err
	}
	s := &SQLStore{db: db, d: d, table: table, now: time.Now}
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value %s NOT NULL,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL DEFAULT 0
		)`, table, d.BlobType()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_expires ON %[1]s (expires_at)`, table),
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s cache: create table %s: %w", d, table, err)
		}
	}
	return s, nil
}

// OpenSQLStore opens the database for d and builds the store on it.
func OpenSQLStore(ctx context.Context, d sqldb.Dialect, dsn, table string) (*SQLStore, error) {
	db, err := sqldb.Open(ctx, d, dsn)
	if err != nil {
		return nil, err
	}
	s, err := NewSQLStore(ctx, db, d, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) q(format string) string {
	return s.d.Rebind(fmt.Sprintf(format, s.table))
}

func (s *SQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		e                Entry
		created, expires int64
	)
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT key, value, created_at, expires_at FROM %s WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`),
		key, s.now().UnixNano(),
	).Scan(&e.Key, &e.Value, &created, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("cache key %q: %w", key, errors.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("%s cache: get: %w", s.d, err)
	}
	e.CreatedAt, e.ExpiresAt = fromNanos(created), fromNanos(expires)
	return &e, nil
}

func (s *SQLStore) Put(ctx context.Context, e *Entry) error {
	if e == nil || e.Key == "" {
		return fmt.Errorf("cache entry without key: %w", errors.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO %s (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at, expires_at = excluded.expires_at`),
		e.Key, e.Value, nanos(e.CreatedAt), nanos(e.ExpiresAt))
	if err != nil {
		return fmt.Errorf("%s cache: put: %w", s.d, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM %s WHERE key = ?`), key); err != nil {
		return fmt.Errorf("%s cache: delete: %w", s.d, err)
	}
	return nil
}

// Cleanup deletes expired rows.
func (s *SQLStore) Cleanup(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM %s WHERE expires_at <> 0 AND expires_at <= ?`), s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("%s cache: cleanup: %w", s.d, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Stats summarises live rows.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	query := fmt.Sprintf(`SELECT COUNT(*), COALESCE(MIN(created_at), 0), COALESCE(MAX(created_at), 0),
		COALESCE(SUM(%[1]s(value) + %[1]s(key)), 0)
		FROM %%s WHERE expires_at = 0 OR expires_at > ?`, s.d.ByteLength())
	var (
		st             Stats
		oldest, newest int64
	)
	if err := s.db.QueryRowContext(ctx, s.q(query), s.now().UnixNano()).Scan(&st.Count, &oldest, &newest, &st.ApproxSizeBytes); err != nil {
		return Stats{}, fmt.Errorf("%s cache: stats: %w", s.d, err)
	}
	st.Oldest, st.Newest = fromNanos(oldest), fromNanos(newest)
	return st, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
