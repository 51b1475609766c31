package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// Notifier sends playback notices to a guild text channel. Used for events
// the user did not directly trigger: automatic queue advancement and
// advancement failures.
type Notifier interface {
	// SendNowPlaying announces a track that started via queue advancement.
	SendNowPlaying(channelID snowflake.ID, title string) error

	// SendError reports a playback problem to the channel.
	SendError(channelID snowflake.ID, message string) error
}
