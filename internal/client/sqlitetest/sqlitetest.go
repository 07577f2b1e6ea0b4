// Package sqlitetest opens migrated, file-backed SQLite databases for tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ustory/internal/client/migrations"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// New returns a database under t.TempDir() with all migrations applied.
// The pool is limited to one connection so transactions serialize.
func New(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Up(context.Background(), db)
	require.NoError(t, err)
	return db
}
