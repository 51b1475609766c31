package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// DefaultVolume is the initial playback gain for a fresh session.
const DefaultVolume = 1.0

// Session holds the per-guild playback state. Exactly one Session exists
// per guild with an open voice connection; it is created on the first
// successful connect and deleted on stop or fatal disconnect.
//
// Session is not internally synchronized: the usecases layer serializes all
// access per guild.
type Session struct {
	guildID               snowflake.ID
	voiceChannelID        snowflake.ID // retained after disconnect for queue-advancement reconnects
	notificationChannelID snowflake.ID
	current               *ResolvedTrack
	Queue                 TrackQueue
	loopTrack             bool
	loopQueue             bool
	volume                float64 // [0.0, 1.0]
	playing               bool
	paused                bool
	streamSeq             uint64 // identifies the active stream instance
}

// NewSession creates a Session for the given guild, connected to the given
// voice channel.
func NewSession(guildID, voiceChannelID, notificationChannelID snowflake.ID) *Session {
	return &Session{
		guildID:               guildID,
		voiceChannelID:        voiceChannelID,
		notificationChannelID: notificationChannelID,
		Queue:                 NewTrackQueue(),
		volume:                DefaultVolume,
	}
}

// GuildID returns the guild this session belongs to. Immutable.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// VoiceChannelID returns the last-known target voice channel.
func (s *Session) VoiceChannelID() snowflake.ID {
	return s.voiceChannelID
}

// SetVoiceChannelID updates the target voice channel.
func (s *Session) SetVoiceChannelID(channelID snowflake.ID) {
	s.voiceChannelID = channelID
}

// NotificationChannelID returns the text channel for playback notices.
func (s *Session) NotificationChannelID() snowflake.ID {
	return s.notificationChannelID
}

// SetNotificationChannelID updates the text channel for playback notices.
func (s *Session) SetNotificationChannelID(channelID snowflake.ID) {
	s.notificationChannelID = channelID
}

// Current returns the track currently streaming or paused, or nil.
func (s *Session) Current() *ResolvedTrack {
	return s.current
}

// SetCurrent replaces the current track.
func (s *Session) SetCurrent(track *ResolvedTrack) {
	s.current = track
}

// ClearCurrent drops the current track. Called on stop and on going idle so
// the field is never left dangling.
func (s *Session) ClearCurrent() {
	s.current = nil
}

// IsPlaying reports whether a stream is active (possibly paused).
func (s *Session) IsPlaying() bool {
	return s.playing
}

// SetPlaying marks stream activity.
func (s *Session) SetPlaying(playing bool) {
	s.playing = playing
	if !playing {
		s.paused = false
	}
}

// IsPaused reports whether the active stream is paused.
func (s *Session) IsPaused() bool {
	return s.paused
}

// SetPaused marks the active stream paused or resumed.
func (s *Session) SetPaused(paused bool) {
	s.paused = paused
}

// LoopTrack reports whether the current track replays on completion.
func (s *Session) LoopTrack() bool {
	return s.loopTrack
}

// SetLoopTrack sets the track loop flag.
func (s *Session) SetLoopTrack(v bool) {
	s.loopTrack = v
}

// ToggleLoopTrack flips the track loop flag and returns the new state.
func (s *Session) ToggleLoopTrack() bool {
	s.loopTrack = !s.loopTrack
	return s.loopTrack
}

// LoopQueue reports whether the queue restarts after draining.
func (s *Session) LoopQueue() bool {
	return s.loopQueue
}

// ToggleLoopQueue flips the queue loop flag and returns the new state.
func (s *Session) ToggleLoopQueue() bool {
	s.loopQueue = !s.loopQueue
	return s.loopQueue
}

// Volume returns the session gain in [0.0, 1.0].
func (s *Session) Volume() float64 {
	return s.volume
}

// SetVolume stores the session gain. The caller validates range.
func (s *Session) SetVolume(v float64) {
	s.volume = v
}

// NextStreamSeq advances and returns the stream sequence number. Each
// started stream instance gets a fresh sequence so a completion event from
// a replaced stream can be told apart from the live one.
func (s *Session) NextStreamSeq() uint64 {
	s.streamSeq++
	return s.streamSeq
}

// StreamSeq returns the sequence of the most recently started stream.
func (s *Session) StreamSeq() uint64 {
	return s.streamSeq
}
