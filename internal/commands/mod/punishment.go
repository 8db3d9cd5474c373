// Package mod - /punishment view, remove and modlog
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

func idOption() *discordgo.ApplicationCommandOption {
	minID := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: "Punishment id",
		Required:    true,
		MinValue:    &minID,
	}
}

func typeOption() *discordgo.ApplicationCommandOption {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(punishment.AllTypes))
	for _, t := range punishment.AllTypes {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: t.DisplayName(), Value: string(t)})
	}
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "type",
		Description: "Only show this punishment type",
		Choices:     choices,
	}
}

func createViewCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("view", "Display the metadata of a punishment", "punishment", viewHandler(svc)).
		WithOptions(idOption()).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuild()
}

func createRemoveCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("remove", "Remove an active punishment", "punishment", removeHandler(svc)).
		WithOptions(idOption(), reasonOption()).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuild()
}

func createModlogCommand(svc *services.Services) *discord.Command {
	minPage := 1.0
	return discord.NewCommand("modlog", "Display all punishments of a member", "punishment", modlogHandler(svc)).
		WithOptions(
			userOption("Member whose history to show"),
			typeOption(),
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "page",
				Description: "Page to display",
				MinValue:    &minPage,
			},
		).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuild()
}

// username resolves a display name for userID, falling back to the id.
func username(ctx *discord.CommandContext, userID string) string {
	data := ctx.Interaction.ApplicationCommandData()
	if data.Resolved != nil {
		if u, ok := data.Resolved.Users[userID]; ok {
			return u.Username
		}
	}
	u, err := ctx.Session.User(userID, discordgo.WithContext(ctx.Context()))
	if err != nil {
		return userID
	}
	return u.Username
}

func botID(ctx *discord.CommandContext) string {
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		return ctx.Session.State.User.ID
	}
	return ""
}

func viewHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		id := ctx.GetIntOption("id")
		p, err := svc.Punishments.GetByID(ctx.Context(), ctx.GuildID(), id)
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo leer la sanción #%d: %v", id, err), "Mod")
			return ctx.ReplyEphemeral("Something went wrong while reading punishments. Try again later.")
		}
		if p == nil {
			return ctx.Reply(fmt.Sprintf("No punishment matching **#%d** found!", id))
		}
		return ctx.ReplyEmbed(viewEmbed(p, username(ctx, p.UserID), botID(ctx)))
	}
}

func removeHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		id := ctx.GetIntOption("id")
		p, err := svc.Punishments.GetByID(ctx.Context(), ctx.GuildID(), id)
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo leer la sanción #%d: %v", id, err), "Mod")
			return ctx.ReplyEphemeral("Something went wrong while reading punishments. Try again later.")
		}
		if p == nil {
			return ctx.Reply(fmt.Sprintf("No punishment matching **#%d** found!", id))
		}
		if !p.IsActive {
			return ctx.Reply("Punishment is currently not active!")
		}

		if err := ctx.Defer(); err != nil {
			return err
		}

		actorID := ctx.User().ID
		removed, err := svc.Engine.Remove(ctx.Context(), moderation.RemoveRequest{
			GuildID:      ctx.GuildID(),
			PunishmentID: id,
			ActorID:      &actorID,
			Reason:       ctx.GetStringOption("reason"),
		})
		name := username(ctx, p.UserID)
		if err != nil {
			msg, expected := removalFailureMessage(err, p.Type, name)
			if !expected {
				logger.Error(fmt.Sprintf("No se pudo quitar #%d: %v", id, err), "Mod")
			}
			return ctx.EditReply(msg)
		}
		return ctx.EditReply(removedMessage(removed, name))
	}
}

func modlogHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		var filter *punishment.Type
		if raw := ctx.GetStringOption("type"); raw != "" {
			t, err := punishment.ParseType(raw)
			if err != nil {
				return ctx.ReplyEphemeral("Invalid punishment type!")
			}
			filter = &t
		}

		records, err := svc.Punishments.ListForUser(ctx.Context(), ctx.GuildID(), user.ID, filter)
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo listar el historial de %s: %v", user.ID, err), "Mod")
			return ctx.ReplyEphemeral("Something went wrong while reading punishments. Try again later.")
		}
		if len(records) == 0 {
			return ctx.Reply(emptyModlogMessage(filter))
		}

		page := int(ctx.GetIntOption("page"))
		return ctx.ReplyEmbed(modlogEmbed(records, filter, user.Username, botID(ctx), page))
	}
}
