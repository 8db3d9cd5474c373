// Package events provides a registry for organizing bot events.
// Events are organized by category (ready, guild, member).
package events

import (
	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, svc *services.Services) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready event (bot startup)
	RegisterReadyEvent(client)

	// Guild events (policy rows)
	RegisterGuildEvents(client, svc.Policies)

	// Member and ban events (drift detection)
	watcher := NewDriftWatcher(svc.Policies, svc.Punishments, svc.Enforcer, svc.Engine, func() string {
		if u := client.Session.State.User; u != nil {
			return u.ID
		}
		return ""
	})
	RegisterMemberEvents(client, watcher)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
