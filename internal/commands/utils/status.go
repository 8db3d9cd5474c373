package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand(
		"status",
		"Show the state of the bot and its backends",
		"utils",
		statusHandler(svc),
	)
}

func mqttStatus(svc *services.Services) string {
	switch {
	case svc.MQTT == nil:
		return "⚪ | Deshabilitado"
	case svc.MQTT.IsConnected():
		return "🟢 | En linea"
	default:
		return "🔴 | Desconectado"
	}
}

func statusHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		dbStatus, _ := svc.Database.GetStatus()
		archiveStatus, _ := svc.Archive.GetStatus()

		return ctx.Reply(fmt.Sprintf(
			"📊 **Bot status**\n"+
				"• Bot: 🟢 Online\n"+
				"• Database: %s\n"+
				"• Modlog archive: %s\n"+
				"• MQTT: %s\n"+
				"• Servers: %d",
			dbStatus,
			archiveStatus,
			mqttStatus(svc),
			ctx.Client.GuildCount(),
		))
	}
}
