package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

const defaultConnectTimeout = 10 * time.Second

// PlaybackConfig tunes controller behavior.
type PlaybackConfig struct {
	// ConnectTimeout bounds a single voice connect attempt.
	ConnectTimeout time.Duration

	// IdleTimeout is how long an idle session (nothing playing, empty
	// queue) is kept connected before auto-disconnect. Zero disables it.
	IdleTimeout time.Duration
}

// PlaybackService is the playback controller: it owns session lifecycle,
// stream start/stop and queue advancement. All per-guild state transitions
// go through here, serialized by the guild locker.
type PlaybackService struct {
	repo       domain.SessionRepository
	resolver   ports.TrackResolver
	streamer   ports.AudioStreamer
	voice      ports.VoiceConnector
	voiceState ports.VoiceStateProvider
	notifier   ports.Notifier
	locker     *GuildLocker
	config     PlaybackConfig

	timersMu   sync.Mutex
	idleTimers map[snowflake.ID]*time.Timer
}

// NewPlaybackService creates a PlaybackService.
func NewPlaybackService(
	repo domain.SessionRepository,
	resolver ports.TrackResolver,
	streamer ports.AudioStreamer,
	voice ports.VoiceConnector,
	voiceState ports.VoiceStateProvider,
	notifier ports.Notifier,
	locker *GuildLocker,
	config PlaybackConfig,
) *PlaybackService {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}

	return &PlaybackService{
		repo:       repo,
		resolver:   resolver,
		streamer:   streamer,
		voice:      voice,
		voiceState: voiceState,
		notifier:   notifier,
		locker:     locker,
		config:     config,
		idleTimers: make(map[snowflake.ID]*time.Timer),
	}
}

// PlayInput carries the parameters of a play request.
type PlayInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	URL                   string
}

// PlayResult describes what a play request did.
type PlayResult struct {
	// Queued is true when a track was already playing and the URL was
	// appended to the queue instead of started.
	Queued bool

	// Title is the resolved title of the track that started playing.
	// Empty when Queued.
	Title string

	// QueuedCount is how many additional playlist entries were enqueued
	// beyond the track that started.
	QueuedCount int
}

// Play starts playback of the given URL in the requester's voice channel,
// or appends it to the queue when a track is already playing. The bot
// follows the requester: if it is connected to a different channel, it
// moves before starting.
func (p *PlaybackService) Play(ctx context.Context, input PlayInput) (*PlayResult, error) {
	userChannel, ok := p.voiceState.UserVoiceChannel(input.GuildID, input.UserID)
	if !ok {
		return nil, ErrNotInVoiceChannel
	}

	unlock := p.locker.Lock(input.GuildID)
	defer unlock()

	p.cancelIdleTimer(input.GuildID)

	session := p.repo.Get(input.GuildID)

	connectedChannel, connected := p.voice.Connected(input.GuildID)
	if connected && connectedChannel != userChannel {
		p.streamer.Stop(input.GuildID)
		if session != nil {
			session.SetPlaying(false)
			// The stopped track is gone for good, even if starting the new
			// one fails below.
			session.ClearCurrent()
		}
		if err := p.voice.Leave(input.GuildID); err != nil {
			slog.Warn("failed to leave voice channel before moving", "guild", input.GuildID, "error", err)
		}
		connected = false
	}
	if !connected {
		if err := p.connect(ctx, input.GuildID, userChannel); err != nil {
			return nil, err
		}
	}

	if session == nil {
		session = domain.NewSession(input.GuildID, userChannel, input.NotificationChannelID)
		p.repo.Save(session)
	} else {
		session.SetVoiceChannelID(userChannel)
		session.SetNotificationChannelID(input.NotificationChannelID)
	}

	if session.IsPlaying() {
		session.Queue.Enqueue(domain.NewPendingTrack(input.URL, ""))
		return &PlayResult{Queued: true}, nil
	}

	title, queuedCount, err := p.startFromSource(ctx, session, input.URL)
	if err != nil {
		return nil, err
	}

	return &PlayResult{Title: title, QueuedCount: queuedCount}, nil
}

// HandleTrackEnd is the stream completion callback. It matches
// events.TrackEndFunc and drives loop handling and queue advancement.
func (p *PlaybackService) HandleTrackEnd(ctx context.Context, guildID snowflake.ID, seq uint64, streamErr error) {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil {
		return
	}
	if seq != session.StreamSeq() {
		// Completion from a stream that has since been replaced.
		slog.Debug("ignoring stale stream completion", "guild", guildID, "seq", seq, "live", session.StreamSeq())
		return
	}

	session.SetPlaying(false)
	if streamErr != nil {
		slog.Error("stream ended with error", "guild", guildID, "error", streamErr)
	}

	p.advance(ctx, session)
}

// Pause suspends the active stream.
func (p *PlaybackService) Pause(guildID snowflake.ID) error {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil || !session.IsPlaying() {
		return ErrNotPlaying
	}
	if session.IsPaused() {
		return ErrAlreadyPaused
	}

	p.streamer.Pause(guildID)
	session.SetPaused(true)

	return nil
}

// Resume restores a paused stream.
func (p *PlaybackService) Resume(guildID snowflake.ID) error {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil || !session.IsPlaying() {
		return ErrNotPlaying
	}
	if !session.IsPaused() {
		return ErrNotPaused
	}

	p.streamer.Resume(guildID)
	session.SetPaused(false)

	return nil
}

// Stop ends playback, clears the queue, disconnects from voice and deletes
// the session. A later play starts from scratch.
func (p *PlaybackService) Stop(guildID snowflake.ID) error {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	p.cancelIdleTimer(guildID)

	session := p.repo.Get(guildID)
	if session == nil {
		return ErrNotConnected
	}

	p.streamer.Stop(guildID)
	if err := p.voice.Leave(guildID); err != nil {
		slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
	}
	p.repo.Delete(guildID)

	return nil
}

// Skip ends the current track and advances exactly like a natural
// completion would: with track loop on, the same track restarts.
func (p *PlaybackService) Skip(ctx context.Context, guildID snowflake.ID) error {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil || !session.IsPlaying() {
		return ErrNotPlaying
	}

	p.streamer.Stop(guildID)
	session.SetPlaying(false)
	p.advance(ctx, session)

	return nil
}

// Seek restarts the current track's stream from the given position. The
// resolved stream URL is reused; no re-resolution happens.
func (p *PlaybackService) Seek(ctx context.Context, guildID snowflake.ID, position time.Duration) error {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil || !session.IsPlaying() || session.Current() == nil {
		return ErrNotPlaying
	}
	if position < 0 {
		position = 0
	}

	p.streamer.Stop(guildID)

	spec := ports.StreamSpec{
		URL:    session.Current().StreamURL,
		Volume: session.Volume(),
		Offset: position,
		Seq:    session.NextStreamSeq(),
	}
	if err := p.streamer.Start(ctx, guildID, spec); err != nil {
		session.SetPlaying(false)
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	session.SetPaused(false)

	return nil
}

// SetVolume stores the playback gain for the session and applies it to the
// live stream when one exists. Returns whether the change took effect
// immediately.
func (p *PlaybackService) SetVolume(guildID snowflake.ID, level int) (bool, error) {
	if level < 0 || level > 100 {
		return false, ErrVolumeOutOfRange
	}

	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil {
		return false, ErrNotConnected
	}

	gain := float64(level) / 100.0
	session.SetVolume(gain)
	live := p.streamer.SetVolume(guildID, gain)

	return live, nil
}

// ToggleLoopTrack flips track looping and returns the new state.
func (p *PlaybackService) ToggleLoopTrack(guildID snowflake.ID) (bool, error) {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil {
		return false, ErrNotConnected
	}

	return session.ToggleLoopTrack(), nil
}

// ToggleLoopQueue flips queue looping and returns the new state.
func (p *PlaybackService) ToggleLoopQueue(guildID snowflake.ID) (bool, error) {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil {
		return false, ErrNotConnected
	}

	return session.ToggleLoopQueue(), nil
}

// NowPlayingInfo describes the current track for display.
type NowPlayingInfo struct {
	Title     string
	SourceURL string
	Paused    bool
	LoopTrack bool
	LoopQueue bool
	Volume    int // percent
}

// NowPlaying returns the current track, or ErrNotPlaying when idle.
func (p *PlaybackService) NowPlaying(guildID snowflake.ID) (*NowPlayingInfo, error) {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil || !session.IsPlaying() || session.Current() == nil {
		return nil, ErrNotPlaying
	}

	track := session.Current()
	return &NowPlayingInfo{
		Title:     track.Title,
		SourceURL: track.SourceURL,
		Paused:    session.IsPaused(),
		LoopTrack: session.LoopTrack(),
		LoopQueue: session.LoopQueue(),
		Volume:    int(math.Round(session.Volume() * 100)),
	}, nil
}

// startFromSource resolves a user-supplied URL and starts its first track.
// Playlist-shaped sources enqueue every entry beyond the first.
func (p *PlaybackService) startFromSource(ctx context.Context, session *domain.Session, url string) (title string, queuedCount int, err error) {
	res, err := p.resolver.Resolve(ctx, url, true)
	if err != nil {
		return "", 0, err
	}

	first := domain.NewPendingTrack(url, "")
	if len(res.Entries) > 0 {
		first = res.Entries[0]
		if rest := res.Entries[1:]; len(rest) > 0 {
			session.Queue.Enqueue(rest...)
			queuedCount = len(rest)
		}
	}

	track, err := p.startPending(ctx, session, first)
	if err != nil {
		return "", queuedCount, err
	}

	return track.Title, queuedCount, nil
}

// startPending fully resolves a pending track and starts its stream. Track
// loop is reset: a freshly started track never inherits the previous
// track's loop.
func (p *PlaybackService) startPending(ctx context.Context, session *domain.Session, pending domain.PendingTrack) (*domain.ResolvedTrack, error) {
	res, err := p.resolver.Resolve(ctx, pending.SourceURL, false)
	if err != nil {
		return nil, err
	}
	track := res.Track

	spec := ports.StreamSpec{
		URL:    track.StreamURL,
		Volume: session.Volume(),
		Seq:    session.NextStreamSeq(),
	}
	if err := p.streamer.Start(ctx, session.GuildID(), spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}

	session.SetCurrent(track)
	session.SetLoopTrack(false)
	session.SetPlaying(true)

	return track, nil
}

// advance decides what plays after a track ends: restart it (track loop),
// re-enqueue it and pop the next entry (queue loop), pop the next entry, or
// go idle. Entries that fail to resolve are skipped with a notice rather
// than stalling the queue.
func (p *PlaybackService) advance(ctx context.Context, session *domain.Session) {
	guildID := session.GuildID()

	if session.LoopTrack() && session.Current() != nil {
		track := session.Current()
		if err := p.ensureConnected(ctx, session); err != nil {
			slog.Error("reconnect failed for track loop", "guild", guildID, "error", err)
			p.goIdle(session)
			return
		}

		spec := ports.StreamSpec{
			URL:    track.StreamURL,
			Volume: session.Volume(),
			Seq:    session.NextStreamSeq(),
		}
		if err := p.streamer.Start(ctx, guildID, spec); err == nil {
			session.SetPlaying(true)
			return
		} else {
			slog.Error("failed to restart looped track", "guild", guildID, "title", track.Title, "error", err)
			// fall through to queue advancement
		}
	}

	if session.LoopQueue() && session.Current() != nil {
		session.Queue.Enqueue(session.Current().Pending())
	}
	session.ClearCurrent()

	for {
		next := session.Queue.PopFront()
		if next == nil {
			break
		}

		if err := p.ensureConnected(ctx, session); err != nil {
			slog.Error("reconnect failed during queue advancement", "guild", guildID, "error", err)
			p.notifyError(session, "Lost the voice connection; stopping playback.")
			break
		}

		track, err := p.startPending(ctx, session, *next)
		if err == nil {
			p.notifyNowPlaying(session, track.Title)
			return
		}

		slog.Warn("skipping unplayable track", "guild", guildID, "url", next.SourceURL, "error", err)
		p.notifyError(session, advanceFailureMessage(*next, err))
	}

	p.goIdle(session)
}

// ensureConnected reconnects to the session's last-known voice channel if
// the connection dropped mid-queue.
func (p *PlaybackService) ensureConnected(ctx context.Context, session *domain.Session) error {
	if _, ok := p.voice.Connected(session.GuildID()); ok {
		return nil
	}
	slog.Info("voice connection lost, reconnecting", "guild", session.GuildID(), "channel", session.VoiceChannelID())
	return p.connect(ctx, session.GuildID(), session.VoiceChannelID())
}

func (p *PlaybackService) connect(ctx context.Context, guildID, channelID snowflake.ID) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.ConnectTimeout)
	defer cancel()

	if err := p.voice.Join(ctx, guildID, channelID); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

func (p *PlaybackService) goIdle(session *domain.Session) {
	session.ClearCurrent()
	session.SetPlaying(false)
	p.scheduleIdleTimer(session.GuildID())
	slog.Debug("queue drained, going idle", "guild", session.GuildID())
}

func (p *PlaybackService) notifyNowPlaying(session *domain.Session, title string) {
	channelID := session.NotificationChannelID()
	if channelID == 0 {
		return
	}
	if err := p.notifier.SendNowPlaying(channelID, title); err != nil {
		slog.Warn("failed to send now-playing notice", "guild", session.GuildID(), "error", err)
	}
}

func (p *PlaybackService) notifyError(session *domain.Session, message string) {
	channelID := session.NotificationChannelID()
	if channelID == 0 {
		return
	}
	if err := p.notifier.SendError(channelID, message); err != nil {
		slog.Warn("failed to send error notice", "guild", session.GuildID(), "error", err)
	}
}

// advanceFailureMessage picks user guidance for a track skipped during
// queue advancement.
func advanceFailureMessage(track domain.PendingTrack, err error) string {
	name := track.Title
	if name == "" || name == domain.UnknownTitle {
		name = track.SourceURL
	}

	if resErr := ports.AsResolutionError(err); resErr != nil {
		switch resErr.Kind {
		case ports.KindRequiresAuth:
			return fmt.Sprintf("Skipping %s: it requires sign-in and cannot be played.", name)
		case ports.KindNotFound:
			return fmt.Sprintf("Skipping %s: the video is unavailable.", name)
		case ports.KindFormatUnavailable:
			return fmt.Sprintf("Skipping %s: no playable audio format was found.", name)
		case ports.KindNetworkTimeout:
			return fmt.Sprintf("Skipping %s: the source did not respond in time.", name)
		}
	}

	return fmt.Sprintf("Skipping %s: it could not be played.", name)
}

func (p *PlaybackService) scheduleIdleTimer(guildID snowflake.ID) {
	if p.config.IdleTimeout <= 0 {
		return
	}

	p.timersMu.Lock()
	defer p.timersMu.Unlock()

	if timer, ok := p.idleTimers[guildID]; ok {
		timer.Stop()
	}
	p.idleTimers[guildID] = time.AfterFunc(p.config.IdleTimeout, func() {
		p.disconnectIdle(guildID)
	})
}

func (p *PlaybackService) cancelIdleTimer(guildID snowflake.ID) {
	p.timersMu.Lock()
	defer p.timersMu.Unlock()

	if timer, ok := p.idleTimers[guildID]; ok {
		timer.Stop()
		delete(p.idleTimers, guildID)
	}
}

// disconnectIdle fires from the idle timer. It re-checks state under the
// guild lock: if playback restarted meanwhile, it does nothing.
func (p *PlaybackService) disconnectIdle(guildID snowflake.ID) {
	unlock := p.locker.Lock(guildID)
	defer unlock()

	session := p.repo.Get(guildID)
	if session == nil || session.IsPlaying() || !session.Queue.IsEmpty() {
		return
	}

	slog.Info("disconnecting idle voice session", "guild", guildID)
	if err := p.voice.Leave(guildID); err != nil {
		slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
	}
	p.repo.Delete(guildID)
	p.cancelIdleTimer(guildID)
}
