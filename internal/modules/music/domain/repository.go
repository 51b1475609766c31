package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// SessionRepository stores per-guild playback sessions. It carries no
// business logic; it exists so the playback controller can be written
// against an abstract store and tested with an in-memory fake.
type SessionRepository interface {
	// Get returns the Session for the given guild, or nil if none exists.
	Get(guildID snowflake.ID) *Session

	// Save stores the Session.
	Save(session *Session)

	// Delete removes the Session for the given guild.
	Delete(guildID snowflake.ID)

	// Count returns the number of stored sessions.
	Count() int
}
