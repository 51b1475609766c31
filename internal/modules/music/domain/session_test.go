package domain

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

const (
	testGuildID   = snowflake.ID(1)
	testVoiceID   = snowflake.ID(2)
	testChannelID = snowflake.ID(3)
)

func newTestSession() *Session {
	return NewSession(testGuildID, testVoiceID, testChannelID)
}

func TestNewSession(t *testing.T) {
	s := newTestSession()

	if s.GuildID() != testGuildID {
		t.Errorf("expected guild %d, got %d", testGuildID, s.GuildID())
	}
	if s.VoiceChannelID() != testVoiceID {
		t.Errorf("expected voice channel %d, got %d", testVoiceID, s.VoiceChannelID())
	}
	if s.Volume() != DefaultVolume {
		t.Errorf("expected default volume %v, got %v", DefaultVolume, s.Volume())
	}
	if s.LoopTrack() || s.LoopQueue() {
		t.Error("expected loop flags off by default")
	}
	if s.IsPlaying() || s.IsPaused() {
		t.Error("expected fresh session not playing")
	}
	if s.Current() != nil {
		t.Error("expected no current track")
	}
}

func TestSession_ToggleLoopTrack(t *testing.T) {
	s := newTestSession()

	if got := s.ToggleLoopTrack(); !got {
		t.Error("expected first toggle to enable loop")
	}
	if got := s.ToggleLoopTrack(); got {
		t.Error("expected second toggle to disable loop")
	}
}

func TestSession_ToggleLoopQueue(t *testing.T) {
	s := newTestSession()

	if got := s.ToggleLoopQueue(); !got {
		t.Error("expected first toggle to enable queue loop")
	}
	if !s.LoopQueue() {
		t.Error("expected flag to persist")
	}
	if got := s.ToggleLoopQueue(); got {
		t.Error("expected second toggle to disable queue loop")
	}
}

func TestSession_SetPlayingClearsPaused(t *testing.T) {
	s := newTestSession()
	s.SetPlaying(true)
	s.SetPaused(true)

	s.SetPlaying(false)

	if s.IsPaused() {
		t.Error("expected paused flag cleared when playback stops")
	}
}

func TestSession_StreamSeq(t *testing.T) {
	s := newTestSession()

	first := s.NextStreamSeq()
	second := s.NextStreamSeq()

	if first != 1 || second != 2 {
		t.Errorf("expected sequence 1, 2; got %d, %d", first, second)
	}
	if s.StreamSeq() != second {
		t.Errorf("expected StreamSeq to report the latest sequence")
	}
}

func TestResolvedTrack_Pending(t *testing.T) {
	r := ResolvedTrack{
		SourceURL: "https://example.com/watch?v=1",
		StreamURL: "https://cdn.example.com/stream/1",
		Title:     "Song",
	}

	p := r.Pending()

	if p.SourceURL != r.SourceURL {
		t.Errorf("expected source URL %q, got %q", r.SourceURL, p.SourceURL)
	}
	if p.Title != r.Title {
		t.Errorf("expected title %q, got %q", r.Title, p.Title)
	}
}

func TestNewPendingTrack_PlaceholderTitle(t *testing.T) {
	p := NewPendingTrack("https://example.com", "")

	if p.Title != UnknownTitle {
		t.Errorf("expected placeholder title %q, got %q", UnknownTitle, p.Title)
	}
}
