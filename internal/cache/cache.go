// Package cache keeps fetched problem pages in a SQLite file so repeated
// runs against the same contest do not hit the remote site again.
// Only statement pages are cached; the standings API is always polled live.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cfscaffold/internal/logging"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS pages (
	key        TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	body       TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// DefaultMaxEntries bounds the number of cached pages.
const DefaultMaxEntries = 2000

// Source downloads a page body.
type Source interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// PageCache is a TTL-bounded page store.
type PageCache struct {
	db         *sql.DB
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, ttl time.Duration) (*PageCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &PageCache{
		db:         db,
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}, nil
}

// Close releases the database.
func (c *PageCache) Close() error {
	return c.db.Close()
}

func hashKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns a cached page that has not expired.
func (c *PageCache) Get(ctx context.Context, url string) (string, bool, error) {
	var (
		body      string
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM pages WHERE key = ?`, hashKey(url)).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}

	if c.now().Sub(time.Unix(0, fetchedAt)) > c.ttl {
		return "", false, nil
	}
	return body, true, nil
}

// Put stores a page and evicts the oldest entries beyond the size bound.
func (c *PageCache) Put(ctx context.Context, url, body string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pages (key, url, body, fetched_at) VALUES (?, ?, ?, ?)`,
		hashKey(url), url, body, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`DELETE FROM pages WHERE key NOT IN (SELECT key FROM pages ORDER BY fetched_at DESC LIMIT ?)`,
		c.maxEntries)
	if err != nil {
		return fmt.Errorf("failed to evict cache entries: %w", err)
	}
	return nil
}

// Purge removes expired pages and returns how many were dropped.
func (c *PageCache) Purge(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.ttl).UnixNano()
	res, err := c.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of stored pages, expired or not.
func (c *PageCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Wrap returns a Source that serves from the cache and falls back to src.
func (c *PageCache) Wrap(src Source) *CachedSource {
	return &CachedSource{cache: c, src: src}
}

// CachedSource is a read-through cache in front of a Source.
type CachedSource struct {
	cache *PageCache
	src   Source
}

// FetchPage returns the cached body or fetches and stores it. Cache read or
// write failures never fail the fetch.
func (s *CachedSource) FetchPage(ctx context.Context, url string) (string, error) {
	body, ok, err := s.cache.Get(ctx, url)
	if err != nil {
		logging.CacheWarn("%v", err)
	}
	if ok {
		logging.CacheDebug("hit %s", url)
		return body, nil
	}

	logging.CacheDebug("miss %s", url)
	body, err = s.src.FetchPage(ctx, url)
	if err != nil {
		return "", err
	}

	if err := s.cache.Put(ctx, url, body); err != nil {
		logging.CacheWarn("%v", err)
	}
	return body, nil
}
