// Package testutil provides shared helpers for integration tests.
// The database is an on-disk SQLite file under t.TempDir, so these helpers
// need no external services and never skip.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // registers "sqlite" driver for database/sql
)

// NewSQLiteDB opens an empty SQLite database in a per-test temp directory.
// No migrations are applied; pass the result to repo.Migrate or drive goose
// directly. The connection is closed automatically when the test finishes.
func NewSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "travel-diary.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("testutil.NewSQLiteDB: open: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLiteDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// DiscardLogger returns a logger that drops everything, for constructors
// that require one.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
