package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// TrackEndedEvent is emitted exactly once per stream instance when the
// decode process finishes, normally or with an error. Deliberately stopped
// streams emit nothing.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Seq     uint64
	Err     error // nil on normal completion
}

// TrackEndPublisher is implemented by the event bus; the audio streamer
// publishes completion events through it.
type TrackEndPublisher interface {
	PublishTrackEnded(event TrackEndedEvent)
}
