package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver for database/sql

	"github.com/pkordes/travel-diary/migrations"
)

// OpenSQLite opens (or creates) the SQLite database at path and applies all
// pending migrations. The caller owns the returned *sql.DB.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: open: %w", err)
	}
	// SQLite serialises writers anyway; one connection keeps Update
	// transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: ping: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies all embedded migrations to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("repo.Migrate: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("repo.Migrate: run migrations: %w", err)
	}
	return nil
}

// SQLiteBlobStore is the BlobStore backed by the blobs table.
type SQLiteBlobStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteBlobStore constructs a SQLiteBlobStore. The blobs table must exist;
// use OpenSQLite to get a migrated database.
func NewSQLiteBlobStore(db *sql.DB) *SQLiteBlobStore {
	return &SQLiteBlobStore{db: db, now: time.Now}
}

const getBlobSQL = `SELECT value FROM blobs WHERE key = ?`

const putBlobSQL = `
	INSERT INTO blobs (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (key) DO UPDATE SET
		value      = excluded.value,
		updated_at = excluded.updated_at`

func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, getBlobSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("repo.SQLiteBlobStore.Get: %w", err)
	}
	return v, true, nil
}

func (s *SQLiteBlobStore) Update(ctx context.Context, fn func(tx BlobTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repo.SQLiteBlobStore.Update: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqliteTx{ctx: ctx, tx: tx, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repo.SQLiteBlobStore.Update: commit: %w", err)
	}
	return nil
}

type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
	now func() time.Time
}

func (t *sqliteTx) Get(key string) ([]byte, bool, error) {
	var v []byte
	err := t.tx.QueryRowContext(t.ctx, getBlobSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("repo.sqliteTx.Get: %w", err)
	}
	return v, true, nil
}

func (t *sqliteTx) Put(key string, value []byte) error {
	if _, err := t.tx.ExecContext(t.ctx, putBlobSQL, key, value, t.now().UnixMilli()); err != nil {
		return fmt.Errorf("repo.sqliteTx.Put: %w", err)
	}
	return nil
}
