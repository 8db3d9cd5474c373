// Package utils provides the /utils command group.
package utils

import (
	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterUtilsCommands registers all utility commands as /utils subcommands
func RegisterUtilsCommands(client *discord.ExtendedClient, svc *services.Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Utility commands",
		createPingCommand(),
		createStatusCommand(svc),
		createHelpCommand(),
		createStatsCommand(),
	)
	client.CommandHandler.AddGlobalCommand(group)
}
