// Package commands wires every command category into the Discord client.
// Commands are organized in subdirectories by category.
package commands

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/admin"
	"github.com/PancyStudios/PancyModGo/internal/commands/dev"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, svc *services.Services) {
	// /utils ping, status, help, stats
	utils.RegisterUtilsCommands(client, svc)

	// /mod ban, mute, kick, warn, unmute, unban and /punishment view, remove, modlog
	mod.RegisterModCommands(client, svc)

	// /punishment-admin
	admin.RegisterAdminCommands(client, svc)

	// /dev, dev guild only
	dev.Register(client, svc)
}
