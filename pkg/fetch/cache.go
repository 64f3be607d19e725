package fetch

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS http_cache (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteCache is a persistent response cache backed by a single sqlite file.
// Crawls against the same endpoints across runs reuse cached responses, which
// keeps re-runs cheap and cooperates with endpoint rate limits.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure cache database: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(key string) (string, bool) {
	var value string
	err := c.db.QueryRow("SELECT value FROM http_cache WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *SQLiteCache) Set(key string, value string) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO http_cache(key, value) VALUES(?, ?)",
		key, value,
	)
	return err
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// MemoryCache is an in-memory Cache used in tests and for cache-less runs
// that still want request coalescing within a single process.
type MemoryCache struct {
	store map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: make(map[string]string)}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	value, ok := c.store[key]
	return value, ok
}

func (c *MemoryCache) Set(key string, value string) error {
	c.store[key] = value
	return nil
}
