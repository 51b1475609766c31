package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/dkozyrev/jambot/internal/bot"
	"github.com/dkozyrev/jambot/internal/modules/music/application/ports"
	"github.com/dkozyrev/jambot/internal/modules/music/application/usecases"
	"github.com/dkozyrev/jambot/internal/modules/music/domain"
)

// Embed colors.
const (
	colorSuccess = 0x2ECC71
	colorError   = 0xE74C3C
)

// Handlers holds all the command handlers.
type Handlers struct {
	playback *usecases.PlaybackService
	queue    *usecases.QueueService
}

// NewHandlers creates new Handlers.
func NewHandlers(playback *usecases.PlaybackService, queue *usecases.QueueService) *Handlers {
	return &Handlers{
		playback: playback,
		queue:    queue,
	}
}

// HandlePlay handles the /play command. Resolution can take several
// seconds, so the interaction is deferred and answered with a followup.
func (h *Handlers) HandlePlay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid channel")
	}

	var url string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "url" {
			url = opt.StringValue()
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	result, err := h.playback.Play(context.Background(), usecases.PlayInput{
		GuildID:               guildID,
		UserID:                userID,
		NotificationChannelID: notificationChannelID,
		URL:                   url,
	})
	if err != nil {
		return followUpError(r, errorMessage(err))
	}

	var description string
	switch {
	case result.Queued:
		description = "Added to the queue."
	case result.QueuedCount > 0:
		description = fmt.Sprintf(
			"Now playing **%s**. Queued %d more from the playlist.",
			result.Title, result.QueuedCount,
		)
	default:
		description = fmt.Sprintf("Now playing **%s**.", result.Title)
	}

	return followUpSuccess(r, description)
}

// HandlePause handles the /pause command.
func (h *Handlers) HandlePause(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.playback.Pause(guildID); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *Handlers) HandleResume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.playback.Resume(guildID); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleStop handles the /stop command.
func (h *Handlers) HandleStop(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.playback.Stop(guildID); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Stopped playback and left the voice channel.")
}

// HandleSkip handles the /skip command.
func (h *Handlers) HandleSkip(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.playback.Skip(context.Background(), guildID); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, "Skipped.")
}

// HandleSeek handles the /seek command.
func (h *Handlers) HandleSeek(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var seconds int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "seconds" {
			seconds = opt.IntValue()
		}
	}

	position := time.Duration(seconds) * time.Second
	if err := h.playback.Seek(context.Background(), guildID, position); err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Jumped to %s.", formatPosition(position)))
}

// HandleReplay handles the /replay command.
func (h *Handlers) HandleReplay(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	enabled, err := h.playback.ToggleLoopTrack(guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	if enabled {
		return respondSuccess(r, "Now looping the current track.")
	}
	return respondSuccess(r, "Track loop disabled.")
}

// HandleLoopQueue handles the /loopqueue command.
func (h *Handlers) HandleLoopQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	enabled, err := h.playback.ToggleLoopQueue(guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	if enabled {
		return respondSuccess(r, "Now looping the queue.")
	}
	return respondSuccess(r, "Queue loop disabled.")
}

// HandleQueue handles the /queue command. With a URL it appends to the
// queue; without one it lists the queued tracks.
func (h *Handlers) HandleQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var url string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "url" {
			url = opt.StringValue()
		}
	}

	if url != "" {
		position, err := h.queue.Add(guildID, url)
		if err != nil {
			return respondError(r, errorMessage(err))
		}
		return respondSuccess(r, fmt.Sprintf("Added to the queue at position %d.", position))
	}

	tracks, err := h.queue.List(guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondQueueList(r, tracks)
}

// HandleUnqueue handles the /unqueue command.
func (h *Handlers) HandleUnqueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var index int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "index" {
			index = int(opt.IntValue())
		}
	}

	track, err := h.queue.Remove(guildID, index)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Removed **%s** from the queue.", trackDisplayName(*track)))
}

// HandleClearQueue handles the /clearqueue command.
func (h *Handlers) HandleClearQueue(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	dropped, err := h.queue.Clear(guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Cleared %d tracks from the queue.", dropped))
}

// HandleVolume handles the /volume command.
func (h *Handlers) HandleVolume(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	var level int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "level" {
			level = int(opt.IntValue())
		}
	}

	live, err := h.playback.SetVolume(guildID, level)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	if live {
		return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", level))
	}
	return respondSuccess(r, fmt.Sprintf("Volume set to %d%%. It applies when the next track starts.", level))
}

// HandleNowPlaying handles the /nowplaying command.
func (h *Handlers) HandleNowPlaying(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	info, err := h.playback.NowPlaying(guildID)
	if err != nil {
		return respondError(r, errorMessage(err))
	}

	return respondNowPlaying(r, info)
}

// errorMessage maps service errors to user guidance.
func errorMessage(err error) string {
	if resErr := ports.AsResolutionError(err); resErr != nil {
		switch resErr.Kind {
		case ports.KindRequiresAuth:
			return "That video requires sign-in and cannot be played."
		case ports.KindNotFound:
			return "That video is unavailable."
		case ports.KindFormatUnavailable:
			return "No playable audio format was found for that video."
		case ports.KindNetworkTimeout:
			return "The video source did not respond in time. Try again later."
		default:
			return "That URL could not be resolved."
		}
	}

	switch {
	case errors.Is(err, usecases.ErrNotInVoiceChannel):
		return "Join a voice channel first."
	case errors.Is(err, usecases.ErrNotConnected):
		return "Nothing is playing in this server."
	case errors.Is(err, usecases.ErrConnectionFailed):
		return "Could not connect to the voice channel."
	case errors.Is(err, usecases.ErrNotPlaying):
		return "Nothing is playing right now."
	case errors.Is(err, usecases.ErrAlreadyPaused):
		return "Playback is already paused."
	case errors.Is(err, usecases.ErrNotPaused):
		return "Playback is not paused."
	case errors.Is(err, usecases.ErrVolumeOutOfRange):
		return "Volume must be between 0 and 100."
	case errors.Is(err, usecases.ErrIndexOutOfRange):
		return "There is no track at that position."
	case errors.Is(err, usecases.ErrQueueEmpty):
		return "The queue is empty."
	case errors.Is(err, usecases.ErrPlaybackFailed):
		return "Playback could not be started."
	default:
		return "Something went wrong."
	}
}

func trackDisplayName(track domain.PendingTrack) string {
	if track.Title != "" && track.Title != domain.UnknownTitle {
		return track.Title
	}
	return track.SourceURL
}

func formatPosition(position time.Duration) string {
	total := int(position / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Response helpers.

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

func respondSuccess(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: message,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func followUpError(r bot.Responder, message string) error {
	return r.FollowUp(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}

func followUpSuccess(r bot.Responder, message string) error {
	return r.FollowUp(&discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: message,
				Color:       colorSuccess,
			},
		},
	})
}

func respondQueueList(r bot.Responder, tracks []domain.PendingTrack) error {
	embed := &discordgo.MessageEmbed{
		Title: "Queue",
		Color: colorSuccess,
	}

	if len(tracks) == 0 {
		embed.Description = "The queue is empty."
	} else {
		var sb strings.Builder
		for i, track := range tracks {
			// Escape the period so Discord does not render a markdown list.
			fmt.Fprintf(&sb, "%d\\. %s\n", i+1, trackDisplayName(track))
		}
		embed.Description = sb.String()
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d tracks", len(tracks)),
		}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondNowPlaying(r bot.Responder, info *usecases.NowPlayingInfo) error {
	description := fmt.Sprintf("[%s](%s)", info.Title, info.SourceURL)
	if info.SourceURL == "" {
		description = fmt.Sprintf("**%s**", info.Title)
	}

	var state []string
	if info.Paused {
		state = append(state, "paused")
	}
	if info.LoopTrack {
		state = append(state, "looping track")
	}
	if info.LoopQueue {
		state = append(state, "looping queue")
	}
	state = append(state, fmt.Sprintf("volume %d%%", info.Volume))

	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Description: description,
		Color:       colorSuccess,
		Footer: &discordgo.MessageEmbedFooter{
			Text: strings.Join(state, " | "),
		},
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
