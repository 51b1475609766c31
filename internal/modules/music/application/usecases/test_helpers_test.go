package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

func resolvedTrack(id string) *domain.ResolvedTrack {
	return &domain.ResolvedTrack{
		SourceURL: "https://example.com/watch?v=" + id,
		StreamURL: "https://cdn.example.com/" + id,
		Title:     "Track " + id,
	}
}

type mockRepository struct {
	sessions map[snowflake.ID]*domain.Session
	deleted  []snowflake.ID
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		sessions: make(map[snowflake.ID]*domain.Session),
	}
}

func (m *mockRepository) Get(guildID snowflake.ID) *domain.Session {
	return m.sessions[guildID]
}

func (m *mockRepository) Save(session *domain.Session) {
	m.sessions[session.GuildID()] = session
}

func (m *mockRepository) Delete(guildID snowflake.ID) {
	m.deleted = append(m.deleted, guildID)
	delete(m.sessions, guildID)
}

func (m *mockRepository) Count() int {
	return len(m.sessions)
}

// createSession creates a Session with the given IDs and saves it to the
// mock repository. Returns the session for further modification.
func (m *mockRepository) createSession(
	guildID, voiceChannelID, notificationChannelID snowflake.ID,
) *domain.Session {
	session := domain.NewSession(guildID, voiceChannelID, notificationChannelID)
	m.Save(session)
	return session
}

type resolveCall struct {
	url  string
	flat bool
}

// mockResolver resolves any URL by default: flat calls echo a single entry,
// full calls fabricate a stream URL from the source. Specific URLs can be
// overridden with flat/full results or errors.
type mockResolver struct {
	flat  map[string]*ports.Resolution
	full  map[string]*ports.Resolution
	errs  map[string]error
	calls []resolveCall
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		flat: make(map[string]*ports.Resolution),
		full: make(map[string]*ports.Resolution),
		errs: make(map[string]error),
	}
}

func (m *mockResolver) Resolve(_ context.Context, url string, flat bool) (*ports.Resolution, error) {
	m.calls = append(m.calls, resolveCall{url: url, flat: flat})

	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	if flat {
		if res, ok := m.flat[url]; ok {
			return res, nil
		}
		return &ports.Resolution{
			Entries: []domain.PendingTrack{domain.NewPendingTrack(url, "")},
		}, nil
	}
	if res, ok := m.full[url]; ok {
		return res, nil
	}
	return &ports.Resolution{
		Track: &domain.ResolvedTrack{
			SourceURL: url,
			StreamURL: "stream://" + url,
			Title:     "Title of " + url,
		},
	}, nil
}

type startCall struct {
	guildID snowflake.ID
	spec    ports.StreamSpec
}

type mockStreamer struct {
	startErr error
	live     bool // returned by SetVolume

	starts  []startCall
	stops   []snowflake.ID
	pauses  []snowflake.ID
	resumes []snowflake.ID
	volumes []float64
}

func (m *mockStreamer) Start(_ context.Context, guildID snowflake.ID, spec ports.StreamSpec) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.starts = append(m.starts, startCall{guildID: guildID, spec: spec})
	return nil
}

func (m *mockStreamer) Stop(guildID snowflake.ID) {
	m.stops = append(m.stops, guildID)
}

func (m *mockStreamer) Pause(guildID snowflake.ID) {
	m.pauses = append(m.pauses, guildID)
}

func (m *mockStreamer) Resume(guildID snowflake.ID) {
	m.resumes = append(m.resumes, guildID)
}

func (m *mockStreamer) SetVolume(_ snowflake.ID, volume float64) bool {
	m.volumes = append(m.volumes, volume)
	return m.live
}

func (m *mockStreamer) lastStart() *startCall {
	if len(m.starts) == 0 {
		return nil
	}
	return &m.starts[len(m.starts)-1]
}

type mockVoice struct {
	joinErr   error
	connected map[snowflake.ID]snowflake.ID // guildID -> channelID

	joins  []snowflake.ID
	leaves []snowflake.ID
}

func newMockVoice() *mockVoice {
	return &mockVoice{
		connected: make(map[snowflake.ID]snowflake.ID),
	}
}

func (m *mockVoice) Join(_ context.Context, guildID, channelID snowflake.ID) error {
	m.joins = append(m.joins, channelID)
	if m.joinErr != nil {
		return m.joinErr
	}
	m.connected[guildID] = channelID
	return nil
}

func (m *mockVoice) Leave(guildID snowflake.ID) error {
	m.leaves = append(m.leaves, guildID)
	delete(m.connected, guildID)
	return nil
}

func (m *mockVoice) Connected(guildID snowflake.ID) (snowflake.ID, bool) {
	channelID, ok := m.connected[guildID]
	return channelID, ok
}

type mockVoiceState struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
}

func (m *mockVoiceState) UserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, bool) {
	channelID, ok := m.channels[userID]
	return channelID, ok
}

type mockNotifier struct {
	nowPlaying []string
	errors     []string
}

func (m *mockNotifier) SendNowPlaying(_ snowflake.ID, title string) error {
	m.nowPlaying = append(m.nowPlaying, title)
	return nil
}

func (m *mockNotifier) SendError(_ snowflake.ID, message string) error {
	m.errors = append(m.errors, message)
	return nil
}

// playbackFixture bundles a PlaybackService with all its mocks.
type playbackFixture struct {
	repo       *mockRepository
	resolver   *mockResolver
	streamer   *mockStreamer
	voice      *mockVoice
	voiceState *mockVoiceState
	notifier   *mockNotifier
	locker     *GuildLocker
	service    *PlaybackService
}

func newPlaybackFixture() *playbackFixture {
	return newPlaybackFixtureWithConfig(PlaybackConfig{})
}

func newPlaybackFixtureWithConfig(config PlaybackConfig) *playbackFixture {
	f := &playbackFixture{
		repo:       newMockRepository(),
		resolver:   newMockResolver(),
		streamer:   &mockStreamer{},
		voice:      newMockVoice(),
		voiceState: &mockVoiceState{channels: make(map[snowflake.ID]snowflake.ID)},
		notifier:   &mockNotifier{},
		locker:     NewGuildLocker(),
	}
	f.service = NewPlaybackService(
		f.repo,
		f.resolver,
		f.streamer,
		f.voice,
		f.voiceState,
		f.notifier,
		f.locker,
		config,
	)
	return f
}

// startedSession creates a session that looks like it has a live stream:
// current track set, playing, sequence advanced, voice connected. Returns
// the session and the live stream sequence.
func (f *playbackFixture) startedSession(
	guildID, voiceChannelID, notificationChannelID snowflake.ID,
	track *domain.ResolvedTrack,
) (*domain.Session, uint64) {
	session := f.repo.createSession(guildID, voiceChannelID, notificationChannelID)
	session.SetCurrent(track)
	seq := session.NextStreamSeq()
	session.SetPlaying(true)
	f.voice.connected[guildID] = voiceChannelID
	return session, seq
}
