// Package events provides event handlers for member and ban events
package events

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// driftTimeout bounds one reconciliation including the audit settle delay.
const driftTimeout = 30 * time.Second

// RegisterMemberEvents registers the drift detection handlers
func RegisterMemberEvents(client *discord.ExtendedClient, watcher *DriftWatcher) {
	client.EventHandler.OnGuildMemberUpdate(func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.Member == nil || m.User == nil || m.User.Bot {
			return
		}
		var before []string
		if m.BeforeUpdate != nil {
			before = m.BeforeUpdate.Roles
		}

		ctx, cancel := context.WithTimeout(context.Background(), driftTimeout)
		defer cancel()
		watcher.MemberUpdated(ctx, m.GuildID, m.User.ID, before, m.Roles)
	})

	client.EventHandler.OnGuildBanRemove(func(s *discordgo.Session, b *discordgo.GuildBanRemove) {
		if b.User == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), driftTimeout)
		defer cancel()
		watcher.Unbanned(ctx, b.GuildID, b.User.ID)
	})
}
