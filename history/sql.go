package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/pkg/sqldb"
	"github.com/sweetpotato0/agri-advisor/rag/language"
	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
)

// SQLConfig configures a SQL-backed history.
type SQLConfig struct {
	Dialect  sqldb.Dialect
	Table    string // default advisor_history
	Capacity int
}

// SQL is a Store on a PostgreSQL or SQLite table, newest entries kept up
// to capacity.
type SQL struct {
	db       *sql.DB
	d        sqldb.Dialect
	table    string
	capacity int
	now      func() time.Time
}

// NewSQL creates the history table if needed. The store owns db and closes
// it in Close.
func NewSQL(ctx context.Context, db *sql.DB, cfg SQLConfig) (*SQL, error) {
	if cfg.Table == "" {
		cfg.Table = "advisor_history"
	}
	if err := sqldb.CheckTable(cfg.Table); err != nil {
		return nil, err
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Dialect == "" {
		cfg.Dialect = sqldb.SQLite
	}
	s := &SQL{db: db, d: cfg.Dialect, table: cfg.Table, capacity: cfg.Capacity, now: time.Now}
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			query TEXT NOT NULL,
			language TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_lang ON %[1]s (language, created_at)`, s.table),
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("history: create table %s: %w", s.table, err)
		}
	}
	return s, nil
}

func (s *SQL) q(format string) string {
	return s.d.Rebind(fmt.Sprintf(format, s.table))
}

// Add records query, refreshing the timestamp of an equivalent earlier
// entry, and drops the oldest entries beyond capacity.
func (s *SQL) Add(ctx context.Context, query, lang string) (Entry, error) {
	if preprocess.Normalize(query) == "" {
		return Entry{}, fmt.Errorf("history: empty query: %w", errors.ErrInvalidInput)
	}
	e := Entry{
		ID:        uuid.NewString(),
		Query:     query,
		Language:  language.Canonical(lang),
		CreatedAt: s.now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO %s (key, id, query, language, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET created_at = excluded.created_at
		RETURNING id`),
		key(query, lang), e.ID, e.Query, e.Language, e.CreatedAt.UnixNano(),
	).Scan(&e.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("history: add: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.q(`DELETE FROM %[1]s WHERE key NOT IN (
		SELECT key FROM %[1]s ORDER BY created_at DESC LIMIT ?)`), s.capacity)
	if err != nil {
		return e, fmt.Errorf("history: trim: %w", err)
	}
	return e, nil
}

// Similar scores the entries stored for lang with preprocess.Similarity.
// As with Memory, an identical query is not returned.
func (s *SQL) Similar(ctx context.Context, query, lang string, threshold float64) ([]Match, error) {
	lang = language.Canonical(lang)
	self := key(query, lang)

	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT key, id, query, language, created_at FROM %s WHERE language = ? ORDER BY created_at DESC LIMIT ?`),
		lang, s.capacity)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var (
			k       string
			e       Entry
			created int64
		)
		if err := rows.Scan(&k, &e.ID, &e.Query, &e.Language, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if k == self {
			continue
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		if score := preprocess.Similarity(query, e.Query); score >= threshold {
			out = append(out, Match{Entry: e, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	sortMatches(out)
	return out, nil
}

// Len returns the stored entry count, or 0 when the database is unreachable.
func (s *SQL) Len() int {
	var n int
	if err := s.db.QueryRowContext(context.Background(), s.q(`SELECT COUNT(*) FROM %s`)).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQL) Close() error {
	return s.db.Close()
}
