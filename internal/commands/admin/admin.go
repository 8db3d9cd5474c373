// Package admin provides /punishment-admin, the per-guild punishment policy
// editor.
package admin

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

const configError = "Couldn't update the punishment config. Try again later."

// RegisterAdminCommands registers the /punishment-admin group
func RegisterAdminCommands(client *discord.ExtendedClient, svc *services.Services) {
	group := client.CommandHandler.BuildCommandGroup(
		"punishment-admin",
		"Configure punishments for this server",
		adminCommand("show", "Display the punishment manifest", showHandler(svc)),
		adminCommand("muted-role", "Set the role given to muted members", mutedRoleHandler(svc)).
			WithOptions(roleOption("Muted role")),
		adminCommand("logging-channel", "Set the channel that receives the modlog", loggingChannelHandler(svc)).
			WithOptions(&discordgo.ApplicationCommandOption{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "channel",
				Description:  "Modlog channel",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			}),
		adminCommand("protect-role", "Exempt a role from punishments", roleListHandler(svc, true)).
			WithOptions(roleOption("Role to protect")),
		adminCommand("unprotect-role", "Remove a role from the exemptions", roleListHandler(svc, false)).
			WithOptions(roleOption("Role to unprotect")),
		adminCommand("protect-user", "Exempt a user from punishments", userListHandler(svc, true)).
			WithOptions(userOption("User to protect")),
		adminCommand("unprotect-user", "Remove a user from the exemptions", userListHandler(svc, false)).
			WithOptions(userOption("User to unprotect")),
	)

	perms := int64(discordgo.PermissionManageGuild)
	group.DefaultMemberPermissions = &perms
	client.CommandHandler.AddGlobalCommand(group)
}

// adminCommand builds a subcommand restricted to Manage Server holders.
func adminCommand(name, description string, run discord.CommandRunFunc) *discord.Command {
	return discord.NewCommand(name, description, "admin", run).
		WithUserPermissions(discordgo.PermissionManageGuild).
		InGuild()
}

func roleOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: desc,
		Required:    true,
	}
}

func userOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: desc,
		Required:    true,
	}
}

func guildName(ctx *discord.CommandContext) string {
	if g := ctx.Guild(); g != nil {
		return g.Name
	}
	return ctx.GuildID()
}

func showHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		policy, err := svc.Policies.GetOrCreate(ctx.Context(), ctx.GuildID())
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo leer la política de %s: %v", ctx.GuildID(), err), "Admin")
			return ctx.ReplyEphemeral("Couldn't read the punishment config. Try again later.")
		}
		return ctx.ReplyEphemeralEmbed(manifestEmbed(policy, guildName(ctx)))
	}
}

func update(ctx *discord.CommandContext, svc *services.Services, u punishment.PolicyUpdate, reply string) error {
	if _, err := svc.Policies.Update(ctx.Context(), ctx.GuildID(), u, ctx.User().ID); err != nil {
		logger.Error(fmt.Sprintf("No se pudo actualizar la política de %s: %v", ctx.GuildID(), err), "Admin")
		return ctx.ReplyEphemeral(configError)
	}
	logger.Info(fmt.Sprintf("Política de %s actualizada por %s", ctx.GuildID(), ctx.User().ID), "Admin")
	return ctx.Reply(reply)
}

func mutedRoleHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		role := ctx.GetRoleOption("role")
		if role == nil {
			return ctx.ReplyEphemeral("You must specify a role.")
		}
		return update(ctx, svc, punishment.PolicyUpdate{MutedRoleID: &role.ID},
			"Updated punishment config **muted role** to "+role.Mention())
	}
}

func loggingChannelHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		channel := ctx.GetChannelOption("channel")
		if channel == nil {
			return ctx.ReplyEphemeral("You must specify a channel.")
		}
		return update(ctx, svc, punishment.PolicyUpdate{LoggingChannelID: &channel.ID},
			"Updated punishment config **logging channel** to "+channel.Mention())
	}
}

func roleListHandler(svc *services.Services, add bool) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		role := ctx.GetRoleOption("role")
		if role == nil {
			return ctx.ReplyEphemeral("You must specify a role.")
		}
		policy, err := svc.Policies.GetOrCreate(ctx.Context(), ctx.GuildID())
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo leer la política de %s: %v", ctx.GuildID(), err), "Admin")
			return ctx.ReplyEphemeral(configError)
		}

		edit := listEdit{add: add, subject: "Role", field: "protected roles", id: role.ID, mention: role.Mention()}
		next, reply, ok := edit.apply(policy.ProtectedRoleIDs)
		if !ok {
			return ctx.Reply(reply)
		}
		return update(ctx, svc, punishment.PolicyUpdate{ProtectedRoleIDs: next}, reply)
	}
}

func userListHandler(svc *services.Services, add bool) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}
		policy, err := svc.Policies.GetOrCreate(ctx.Context(), ctx.GuildID())
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo leer la política de %s: %v", ctx.GuildID(), err), "Admin")
			return ctx.ReplyEphemeral(configError)
		}

		edit := listEdit{add: add, subject: "User", field: "protected users", id: user.ID, mention: user.Mention()}
		next, reply, ok := edit.apply(policy.ProtectedUserIDs)
		if !ok {
			return ctx.Reply(reply)
		}
		return update(ctx, svc, punishment.PolicyUpdate{ProtectedUserIDs: next}, reply)
	}
}
