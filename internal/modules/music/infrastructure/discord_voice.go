package infrastructure

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
)

// DiscordVoice manages the bot's voice connections through discordgo, one
// per guild at most.
type DiscordVoice struct {
	session *discordgo.Session

	mu          sync.RWMutex
	connections map[snowflake.ID]*discordgo.VoiceConnection
}

// NewDiscordVoice creates a new DiscordVoice.
func NewDiscordVoice(session *discordgo.Session) *DiscordVoice {
	return &DiscordVoice{
		session:     session,
		connections: make(map[snowflake.ID]*discordgo.VoiceConnection),
	}
}

// Join connects to the given voice channel. discordgo's join handshake has
// no context support, so the attempt runs in a goroutine; if the context
// expires first, a late success is disconnected again.
func (d *DiscordVoice) Join(ctx context.Context, guildID, channelID snowflake.ID) error {
	type joinResult struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	results := make(chan joinResult, 1)

	go func() {
		vc, err := d.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
		results <- joinResult{vc: vc, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-results; r.err == nil && r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return ctx.Err()
	case r := <-results:
		if r.err != nil {
			return r.err
		}
		d.mu.Lock()
		d.connections[guildID] = r.vc
		d.mu.Unlock()
		return nil
	}
}

// Leave disconnects from the guild's voice channel.
func (d *DiscordVoice) Leave(guildID snowflake.ID) error {
	d.mu.Lock()
	vc := d.connections[guildID]
	delete(d.connections, guildID)
	d.mu.Unlock()

	if vc == nil {
		return nil
	}
	return vc.Disconnect()
}

// Connected returns the channel the bot is connected to for the guild.
func (d *DiscordVoice) Connected(guildID snowflake.ID) (snowflake.ID, bool) {
	vc, ok := d.Connection(guildID)
	if !ok {
		return 0, false
	}

	channelID, err := snowflake.Parse(vc.ChannelID)
	if err != nil {
		return 0, false
	}
	return channelID, true
}

// Connection returns the live discordgo voice connection for the guild.
// Used by the audio streamer to deliver opus frames.
func (d *DiscordVoice) Connection(guildID snowflake.ID) (*discordgo.VoiceConnection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	vc, ok := d.connections[guildID]
	if !ok || vc == nil || !vc.Ready {
		return nil, false
	}
	return vc, true
}

// Drop forgets the guild's connection without disconnecting. Called from
// the voice state event handler when Discord closes the connection on its
// side.
func (d *DiscordVoice) Drop(guildID snowflake.ID) {
	d.mu.Lock()
	delete(d.connections, guildID)
	d.mu.Unlock()
}

// Ensure DiscordVoice implements VoiceConnector.
var _ ports.VoiceConnector = (*DiscordVoice)(nil)
