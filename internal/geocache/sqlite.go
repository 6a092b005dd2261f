package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore persists entries in a SQLite database so a warm cache survives
// restarts. Pass ":memory:" for a throwaway database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// cache table exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("geocache.OpenSQLiteStore: open: %w", err)
	}
	// Every connection to ":memory:" is a separate database; a single
	// connection keeps one shared table. SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("geocache.OpenSQLiteStore: %s: %w", p, err)
		}
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS geocache (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("geocache.OpenSQLiteStore: schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, key string, now time.Time) ([]byte, bool, error) {
	const q = `SELECT value, expires_at FROM geocache WHERE key = ?`

	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("geocache.SQLiteStore.Load: %w", err)
	}

	if expiresAt <= now.UnixNano() {
		const del = `DELETE FROM geocache WHERE key = ? AND expires_at = ?`
		if _, err := s.db.ExecContext(ctx, del, key, expiresAt); err != nil {
			return nil, false, fmt.Errorf("geocache.SQLiteStore.Load: evict: %w", err)
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	const q = `
		INSERT INTO geocache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`

	if _, err := s.db.ExecContext(ctx, q, key, value, expiresAt.UnixNano()); err != nil {
		return fmt.Errorf("geocache.SQLiteStore.Save: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
