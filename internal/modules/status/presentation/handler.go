package presentation

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/dkozyrev/jambot/internal/bot"
	"github.com/dkozyrev/jambot/internal/modules/status/application"
)

// PingHandler handles the /ping command.
type PingHandler struct {
	interactor *application.PingInteractor
}

// NewPingHandler creates a new PingHandler.
func NewPingHandler() *PingHandler {
	return &PingHandler{
		interactor: application.NewPingInteractor(),
	}
}

// Handle processes the ping command and sends the response.
func (h *PingHandler) Handle(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	result := h.interactor.Execute()

	content := result.Message
	if s != nil {
		content = fmt.Sprintf("%s (gateway latency %dms)",
			result.Message, s.HeartbeatLatency().Milliseconds())
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// UptimeHandler handles the /uptime command.
type UptimeHandler struct {
	interactor *application.UptimeInteractor
}

// NewUptimeHandler creates a new UptimeHandler.
func NewUptimeHandler(interactor *application.UptimeInteractor) *UptimeHandler {
	return &UptimeHandler{interactor: interactor}
}

// Handle processes the uptime command and sends the response.
func (h *UptimeHandler) Handle(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	result := h.interactor.Execute()

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Up for %s.", result.Format()),
		},
	})
}
