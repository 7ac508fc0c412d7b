package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sweetpotato0/agri-advisor/errors"
)

func TestRebind(t *testing.T) {
	q := "SELECT v FROM t WHERE k = ? AND e > ? LIMIT ?"
	require.Equal(t, "SELECT v FROM t WHERE k = $1 AND e > $2 LIMIT $3", Postgres.Rebind(q))
	require.Equal(t, q, SQLite.Rebind(q))
}

func TestDialectTypes(t *testing.T) {
	require.Equal(t, "BYTEA", Postgres.BlobType())
	require.Equal(t, "BLOB", SQLite.BlobType())
	require.Equal(t, "octet_length", Postgres.ByteLength())
	require.Equal(t, "length", SQLite.ByteLength())
}

func TestCheckTable(t *testing.T) {
	require.NoError(t, CheckTable("advisor_cache"))
	require.ErrorIs(t, CheckTable("cache; DROP"), errors.ErrInvalidInput)
	require.ErrorIs(t, CheckTable(""), errors.ErrInvalidInput)
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agri.db")
	db, err := Open(context.Background(), SQLite, path)
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, 1, db.Stats().MaxOpenConnections)

	_, err = Open(context.Background(), SQLite, "")
	require.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = Open(context.Background(), Dialect("oracle"), "x")
	require.ErrorIs(t, err, errors.ErrInvalidInput)
}
