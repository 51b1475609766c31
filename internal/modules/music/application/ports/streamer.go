package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// StreamSpec describes one stream instance to start.
type StreamSpec struct {
	// URL is the direct media location to decode.
	URL string

	// Volume is the initial gain in [0.0, 1.0].
	Volume float64

	// Offset is the position to start decoding from (seek). Zero means the
	// beginning of the track.
	Offset time.Duration

	// Seq identifies this stream instance. The completion event carries it
	// back so the controller can discard events from replaced streams.
	Seq uint64
}

// AudioStreamer runs the external decode process that feeds audio frames to
// a guild's voice connection. At most one stream per guild is active; Start
// replaces any existing stream without emitting its completion event.
type AudioStreamer interface {
	// Start launches a stream for the guild. It returns once the decode
	// process is running; completion (normal end or stream error) is
	// reported exactly once through a TrackEndedEvent.
	Start(ctx context.Context, guildID snowflake.ID, spec StreamSpec) error

	// Stop terminates the guild's active stream, if any, without emitting a
	// completion event. Used for stop/seek/replace so a stale completion
	// cannot race a newly started stream.
	Stop(guildID snowflake.ID)

	// Pause suspends frame delivery for the guild's active stream.
	Pause(guildID snowflake.ID)

	// Resume restores frame delivery for the guild's paused stream.
	Resume(guildID snowflake.ID)

	// SetVolume adjusts the gain of the guild's live stream in place.
	// Returns false when no live stream exists; the new gain then takes
	// effect on the next Start.
	SetVolume(guildID snowflake.ID, volume float64) bool
}
