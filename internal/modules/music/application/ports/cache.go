package ports

import (
	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

// PlaylistCache stores flat playlist resolutions keyed by source URL.
//
// Only playlist shapes are cached: a fully resolved stream URL is
// time-limited and must never be served from cache, while a playlist's
// entry list (source URLs and titles) stays valid indefinitely. Entries
// have no TTL and persist until externally cleared.
type PlaylistCache interface {
	// Get returns the cached entry list for the URL, or ok=false on miss.
	Get(sourceURL string) (entries []domain.PendingTrack, ok bool, err error)

	// Put upserts the entry list for the URL.
	Put(sourceURL string, entries []domain.PendingTrack) error
}
