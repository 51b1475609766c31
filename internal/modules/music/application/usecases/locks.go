package usecases

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// GuildLocker serializes all session mutations for a guild. Commands,
// completion callbacks and the idle timer for the same guild run one at a
// time; different guilds proceed independently.
type GuildLocker struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*sync.Mutex
}

// NewGuildLocker creates a GuildLocker.
func NewGuildLocker() *GuildLocker {
	return &GuildLocker{
		locks: make(map[snowflake.ID]*sync.Mutex),
	}
}

// Lock acquires the guild's mutex and returns the matching unlock func.
func (g *GuildLocker) Lock(guildID snowflake.ID) func() {
	g.mu.Lock()
	lock, ok := g.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[guildID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
