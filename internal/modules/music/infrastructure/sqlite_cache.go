package infrastructure

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

const createPlaylistCacheTable = `
CREATE TABLE IF NOT EXISTS playlist_cache (
	source_url TEXT PRIMARY KEY,
	entries    TEXT NOT NULL,
	cached_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteCache persists playlist entry lists keyed by source URL, so
// re-queueing a known playlist skips the slow flat extraction. Entries hold
// only source URLs and titles; direct stream URLs are never cached.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the cache database at the given path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist cache: %w", err)
	}

	if _, err := db.Exec(createPlaylistCacheTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize playlist cache schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

type cachedEntry struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
}

// Get returns the cached entry list for the source URL, if present.
func (c *SQLiteCache) Get(sourceURL string) ([]domain.PendingTrack, bool, error) {
	var encoded string
	err := c.db.QueryRow(
		"SELECT entries FROM playlist_cache WHERE source_url = ?",
		sourceURL,
	).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached []cachedEntry
	if err := json.Unmarshal([]byte(encoded), &cached); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry for %q: %w", sourceURL, err)
	}

	tracks := make([]domain.PendingTrack, 0, len(cached))
	for _, entry := range cached {
		tracks = append(tracks, domain.NewPendingTrack(entry.SourceURL, entry.Title))
	}
	return tracks, true, nil
}

// Put stores the entry list for the source URL, replacing any previous one.
func (c *SQLiteCache) Put(sourceURL string, entries []domain.PendingTrack) error {
	cached := make([]cachedEntry, 0, len(entries))
	for _, track := range entries {
		cached = append(cached, cachedEntry{SourceURL: track.SourceURL, Title: track.Title})
	}

	encoded, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO playlist_cache (source_url, entries) VALUES (?, ?)",
		sourceURL, string(encoded),
	)
	return err
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Ensure SQLiteCache implements PlaylistCache.
var _ ports.PlaylistCache = (*SQLiteCache)(nil)
