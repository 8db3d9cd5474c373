package dev

import (
	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// Register registers all dev commands as /dev subcommands (only in dev guild)
func Register(client *discord.ExtendedClient, svc *services.Services) {
	devGroup := client.CommandHandler.BuildCommandGroup(
		"dev",
		"Developer commands",
		CreateSweepCommand(svc),
		CreateExpiringCommand(svc),
		CreateArchiveCommand(svc),
	)
	client.CommandHandler.AddDevCommand(devGroup)
}
