// Package mod provides the moderation commands: the /mod sanction group and
// the /punishment inspection group.
package mod

import (
	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterModCommands registers /mod and /punishment with their subcommands
func RegisterModCommands(client *discord.ExtendedClient, svc *services.Services) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Moderation commands",
		createBanCommand(svc),
		createMuteCommand(svc),
		createKickCommand(svc),
		createWarnCommand(svc),
		createUnmuteCommand(svc),
		createUnbanCommand(svc),
	)
	client.CommandHandler.AddGlobalCommand(modGroup)

	punishmentGroup := client.CommandHandler.BuildCommandGroup(
		"punishment",
		"Inspect and remove punishments",
		createViewCommand(svc),
		createRemoveCommand(svc),
		createModlogCommand(svc),
	)
	client.CommandHandler.AddGlobalCommand(punishmentGroup)
}
