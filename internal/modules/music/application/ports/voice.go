package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnector owns the bot's voice connections, one per guild at most.
type VoiceConnector interface {
	// Join connects the bot to the given voice channel, replacing any
	// existing connection for the guild. The context bounds the connect
	// attempt.
	Join(ctx context.Context, guildID, channelID snowflake.ID) error

	// Leave disconnects the bot from the guild's voice channel.
	Leave(guildID snowflake.ID) error

	// Connected returns the channel the bot is connected to for the guild,
	// or ok=false when there is no live connection.
	Connected(guildID snowflake.ID) (channelID snowflake.ID, ok bool)
}

// VoiceStateProvider reads Discord voice state.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user currently
	// occupies, or ok=false when the user is not in a voice channel.
	UserVoiceChannel(guildID, userID snowflake.ID) (channelID snowflake.ID, ok bool)
}
