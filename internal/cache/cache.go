// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists enrichment lookups in SQLite so repeated runs do not
// query Crossref again for works already resolved. Both hits and confirmed
// misses are stored.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached lookup.
type Entry struct {
	Found     bool
	Payload   json.RawMessage
	FetchedAt time.Time
}

// Decode unmarshals the payload into v.
func (e Entry) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("empty cache payload")
	}
	return json.Unmarshal(e.Payload, v)
}

// Cache wraps the lookup database.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := &Cache{db: db, now: time.Now}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			key TEXT PRIMARY KEY,
			found INTEGER NOT NULL,
			payload TEXT,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_fetched_at ON lookups(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the entry for key. Entries older than maxAge are treated as
// absent; a zero maxAge never expires. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration) (Entry, bool, error) {
	var (
		found   int
		payload sql.NullString
		fetched int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT found, payload, fetched_at FROM lookups WHERE key = ?`, key,
	).Scan(&found, &payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	e := Entry{
		Found:     found != 0,
		FetchedAt: time.Unix(fetched, 0),
	}
	if payload.Valid {
		e.Payload = json.RawMessage(payload.String)
	}
	if maxAge > 0 && c.now().Sub(e.FetchedAt) > maxAge {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put stores the lookup result for key, replacing any previous entry. v is
// marshalled to JSON; it may be nil for a confirmed miss.
func (c *Cache) Put(ctx context.Context, key string, found bool, v any) error {
	var payload sql.NullString
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding cache entry %s: %w", key, err)
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO lookups (key, found, payload, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET found = excluded.found, payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, boolInt(found), payload, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Purge deletes entries older than maxAge and returns how many were removed.
func (c *Cache) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := c.now().Add(-maxAge).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM lookups WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM lookups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// DOIKey is the cache key for a DOI lookup.
func DOIKey(doi string) string { return "doi:" + doi }

// TitleKey is the cache key for a title search; year 0 means no year hint.
func TitleKey(titleKey string, year int) string {
	return "title:" + titleKey + "|" + strconv.Itoa(year)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
