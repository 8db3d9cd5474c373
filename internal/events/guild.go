// Package events provides event handlers for guild (server) events
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

// RegisterGuildEvents makes sure every guild the bot sees has a policy row
func RegisterGuildEvents(client *discord.ExtendedClient, policies punishment.PolicyStore) {
	client.EventHandler.OnGuildCreate(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := policies.EnsureExists(ctx, g.ID); err != nil {
			logger.Error(fmt.Sprintf("No se pudo crear la política de %s: %v", g.ID, err), "Guild")
			return
		}
		if g.JoinedAt.After(time.Now().Add(-10 * time.Second)) {
			logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
		}
	})

	client.EventHandler.OnGuildDelete(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			logger.Warn(fmt.Sprintf("Servidor %s no disponible", g.ID), "Guild")
			return
		}
		logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
	})
}
