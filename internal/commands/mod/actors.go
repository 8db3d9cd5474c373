package mod

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// actorFor builds the authorization view of a member. A nil member (a user
// who is not in the guild) holds no roles and ranks 0.
func actorFor(guild *discordgo.Guild, userID string, member *discordgo.Member) moderation.Actor {
	actor := moderation.Actor{ID: userID}
	if guild != nil && guild.OwnerID == userID {
		actor.IsAdmin = true
		actor.Rank = discord.OwnerRank
	}
	if member == nil {
		return actor
	}

	actor.RoleIDs = member.Roles
	actor.IsAdmin = actor.IsAdmin || discord.IsAdmin(member)
	if rank := discord.MemberRank(guild, member); rank > actor.Rank {
		actor.Rank = rank
	}
	return actor
}

// resolveGuild returns the interaction guild from the state cache, falling
// back to the REST API.
func resolveGuild(ctx *discord.CommandContext) *discordgo.Guild {
	if g := ctx.Guild(); g != nil {
		return g
	}
	g, err := ctx.Session.Guild(ctx.GuildID(), discordgo.WithContext(ctx.Context()))
	if err != nil {
		return nil
	}
	return g
}

// resolveMember looks the user up in the interaction payload, then the
// state cache, then the REST API. It returns nil for non members.
func resolveMember(ctx *discord.CommandContext, userID string) *discordgo.Member {
	data := ctx.Interaction.ApplicationCommandData()
	if data.Resolved != nil {
		if m, ok := data.Resolved.Members[userID]; ok {
			return m
		}
	}
	if m, err := ctx.Session.State.Member(ctx.GuildID(), userID); err == nil {
		return m
	}
	m, err := ctx.Session.GuildMember(ctx.GuildID(), userID, discordgo.WithContext(ctx.Context()))
	if err != nil {
		return nil
	}
	return m
}
