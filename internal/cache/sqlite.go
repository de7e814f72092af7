package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_expires ON cache(expires_at);
`

// SQLite is a Cache backed by a local sqlite database, so cached LLM
// responses survive across daily runs within their TTL.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Cache = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent pipeline workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Get returns the cached value for key, or ErrMiss when absent or expired.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}

	if s.now().Unix() > expiresAt {
		// Expired entries are purged lazily on read.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
		return "", ErrMiss
	}

	return value, nil
}

// Set stores value under key with the given TTL. Last writer wins on an
// identical key.
func (s *SQLite) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Purge deletes all expired entries.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE expires_at < ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
