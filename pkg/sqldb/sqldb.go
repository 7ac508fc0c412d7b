// Package sqldb opens the SQL databases behind the cache and history stores
// and covers the few differences between PostgreSQL and SQLite they meet.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/agri-advisor/errors"
	_ "modernc.org/sqlite"
)

// Dialect is a supported SQL engine.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// CheckTable rejects names that cannot be interpolated into a statement.
func CheckTable(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("invalid table name %q: %w", name, errors.ErrInvalidInput)
	}
	return nil
}

// Open connects with the driver for d and pings the database. For SQLite
// dsn is a file path whose directory is created; the handle is limited to
// one connection and waits on locks held by other handles.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	switch d {
	case Postgres:
	case SQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite: empty path: %w", errors.ErrInvalidInput)
		}
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown sql dialect %q: %w", d, errors.ErrInvalidInput)
	}

	if d == SQLite && dsn != ":memory:" && !strings.Contains(dsn, "?") {
		// The cache and the history may share one file.
		dsn += "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d, err)
	}
	if d == SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d, err)
	}
	return db, nil
}

// Rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL. Statements
// must not contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// BlobType is the column type for raw bytes.
func (d Dialect) BlobType() string {
	if d == Postgres {
		return "BYTEA"
	}
	return "BLOB"
}

// ByteLength is the function returning the size of a blob in bytes.
func (d Dialect) ByteLength() string {
	if d == Postgres {
		return "octet_length"
	}
	return "length"
}
