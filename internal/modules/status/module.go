package status

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/dkozyrev/jambot/internal/bot"
	"github.com/dkozyrev/jambot/internal/modules/status/application"
	"github.com/dkozyrev/jambot/internal/modules/status/presentation"
)

func init() {
	bot.Register(&Module{})
}

// Module provides health and status commands.
type Module struct {
	pingHandler   *presentation.PingHandler
	uptimeHandler *presentation.UptimeHandler
}

// Name returns the module name.
func (m *Module) Name() string {
	return "status"
}

// Commands returns the slash commands for this module.
func (m *Module) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Replies with Pong! and the gateway latency",
		},
		{
			Name:        "uptime",
			Description: "Shows how long the bot has been running",
		},
	}
}

// CommandHandlers returns the command handlers for this module.
func (m *Module) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"ping":   m.pingHandler.Handle,
		"uptime": m.uptimeHandler.Handle,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return nil
}

// Init initializes the module.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	m.pingHandler = presentation.NewPingHandler()
	m.uptimeHandler = presentation.NewUptimeHandler(
		application.NewUptimeInteractor(time.Now()),
	)
	return nil
}

// Shutdown cleans up module resources.
func (m *Module) Shutdown() error {
	return nil
}
