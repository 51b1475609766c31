package music

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/bot"
	"github.com/dkozyrev/jambot/internal/modules/music/application/events"
	"github.com/dkozyrev/jambot/internal/modules/music/application/usecases"
	"github.com/dkozyrev/jambot/internal/modules/music/infrastructure"
	"github.com/dkozyrev/jambot/internal/modules/music/presentation"
)

func init() {
	bot.Register(&Module{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*Module)(nil)

// Module provides music playback commands.
type Module struct {
	config   *Config
	handlers *presentation.Handlers

	repo     *infrastructure.MemoryRepository
	voice    *infrastructure.DiscordVoice
	cache    *infrastructure.SQLiteCache
	playback *usecases.PlaybackService

	eventBus        *events.Bus
	trackEndHandler *events.TrackEndHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *Module) Name() string {
	return "music"
}

// Commands returns the slash commands for this module.
func (m *Module) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *Module) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":       m.handlers.HandlePlay,
		"pause":      m.handlers.HandlePause,
		"resume":     m.handlers.HandleResume,
		"stop":       m.handlers.HandleStop,
		"skip":       m.handlers.HandleSkip,
		"seek":       m.handlers.HandleSeek,
		"replay":     m.handlers.HandleReplay,
		"loopqueue":  m.handlers.HandleLoopQueue,
		"queue":      m.handlers.HandleQueue,
		"unqueue":    m.handlers.HandleUnqueue,
		"clearqueue": m.handlers.HandleClearQueue,
		"volume":     m.handlers.HandleVolume,
		"nowplaying": m.handlers.HandleNowPlaying,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *Module) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	cache, err := infrastructure.NewSQLiteCache(m.config.CachePath)
	if err != nil {
		return err
	}
	m.cache = cache

	m.repo = infrastructure.NewMemoryRepository()
	m.voice = infrastructure.NewDiscordVoice(deps.Session)
	m.eventBus = events.NewBus(events.DefaultEventBufferSize)

	resolver := infrastructure.NewYtdlpResolver(cache, infrastructure.ResolverOptions{
		CookiesFile:       m.config.CookiesFile,
		Proxy:             m.config.Proxy,
		ResolvesPerSecond: m.config.ResolvesPerSecond,
	})
	streamer := infrastructure.NewFFmpegStreamer(m.voice, m.eventBus, m.config.FFmpegPath)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)
	locker := usecases.NewGuildLocker()

	m.playback = usecases.NewPlaybackService(
		m.repo,
		resolver,
		streamer,
		m.voice,
		voiceState,
		notifier,
		locker,
		usecases.PlaybackConfig{
			ConnectTimeout: m.config.ConnectTimeout,
			IdleTimeout:    m.config.IdleTimeout,
		},
	)
	queue := usecases.NewQueueService(m.repo, locker)

	m.trackEndHandler = events.NewTrackEndHandler(m.playback.HandleTrackEnd, m.eventBus)
	m.trackEndHandler.Start(m.ctx)

	m.handlers = presentation.NewHandlers(m.playback, queue)

	slog.Info("music module initialized", "cache", m.config.CachePath)

	return nil
}

// Shutdown cleans up module resources.
func (m *Module) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.trackEndHandler != nil {
		m.trackEndHandler.Stop()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	if m.cache != nil {
		return m.cache.Close()
	}
	return nil
}

// ActiveSessions reports how many guilds currently have a playback session.
func (m *Module) ActiveSessions() int {
	if m.repo == nil {
		return 0
	}
	return m.repo.Count()
}

// handleVoiceStateUpdate tears down the session when the bot is removed
// from its voice channel on Discord's side (kicked, channel deleted).
func (m *Module) handleVoiceStateUpdate(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || event.UserID != s.State.User.ID {
		return
	}
	if event.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		return
	}

	slog.Info("bot removed from voice channel, cleaning up session", "guild", guildID)
	m.voice.Drop(guildID)
	if err := m.playback.Stop(guildID); err != nil {
		slog.Debug("no session to clean up", "guild", guildID, "error", err)
	}
}
