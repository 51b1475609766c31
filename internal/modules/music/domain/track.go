package domain

// UnknownTitle is the placeholder title for tracks that have not been
// resolved yet. Queued entries keep it until they become current.
const UnknownTitle = "unknown"

// PendingTrack is a queued track that has not been resolved yet.
// Resolution is deferred until the track becomes current, because direct
// stream URLs are time-limited and would expire while waiting in the queue.
type PendingTrack struct {
	SourceURL string
	Title     string
}

// NewPendingTrack creates a PendingTrack, substituting the placeholder
// title when none is known.
func NewPendingTrack(sourceURL, title string) PendingTrack {
	if title == "" {
		title = UnknownTitle
	}
	return PendingTrack{
		SourceURL: sourceURL,
		Title:     title,
	}
}

// ResolvedTrack is a track ready for streaming. StreamURL is a direct,
// time-limited media location; it must never be reused for a different
// track or cached across sessions. SourceURL is retained so the track can
// be re-enqueued (loop queue) or re-resolved later.
type ResolvedTrack struct {
	SourceURL string
	StreamURL string
	Title     string
}

// Pending converts a resolved track back to its pending form, dropping the
// stale stream URL but keeping the resolved title.
func (t ResolvedTrack) Pending() PendingTrack {
	return PendingTrack{
		SourceURL: t.SourceURL,
		Title:     t.Title,
	}
}
