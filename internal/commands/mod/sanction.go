// Package mod - /mod ban, mute, kick, warn, unmute and unban
package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

// DefaultDuration applies when /mod ban or /mod mute get no duration.
const DefaultDuration = "1h"

var durationSuggestions = []string{"30m", "1h", "12h", "1d", "7d", "30d", "permanent"}

func userOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: desc,
		Required:    true,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason shown to the user and in the modlog",
		MaxLength:   512,
	}
}

func durationOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "duration",
		Description:  "Length such as 30m, 12h, 7d or permanent (default 1h)",
		Autocomplete: true,
	}
}

// durationAutoComplete suggests common lengths matching what was typed.
func durationAutoComplete(ctx *discord.CommandContext) {
	typed := strings.ToLower(ctx.GetStringOption("duration"))
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(durationSuggestions))
	for _, s := range durationSuggestions {
		if strings.HasPrefix(s, typed) {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: s, Value: s})
		}
	}
	err := ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		logger.Debug("Autocompletado de duración falló: "+err.Error(), "Mod")
	}
}

func createBanCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("ban", "Ban a member for a duration", "mod", sanctionHandler(svc, punishment.TypeBan)).
		WithOptions(userOption("Member to ban"), durationOption(), reasonOption()).
		WithUserPermissions(discordgo.PermissionBanMembers).
		WithAutoComplete(durationAutoComplete).
		InGuild()
}

func createMuteCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("mute", "Mute a member for a duration", "mod", sanctionHandler(svc, punishment.TypeMute)).
		WithOptions(userOption("Member to mute"), durationOption(), reasonOption()).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		WithAutoComplete(durationAutoComplete).
		InGuild()
}

func createKickCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("kick", "Kick a member", "mod", sanctionHandler(svc, punishment.TypeKick)).
		WithOptions(userOption("Member to kick"), reasonOption()).
		WithUserPermissions(discordgo.PermissionKickMembers).
		InGuild()
}

func createWarnCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("warn", "Warn a member", "mod", sanctionHandler(svc, punishment.TypeWarn)).
		WithOptions(userOption("Member to warn"), reasonOption()).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuild()
}

func createUnmuteCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("unmute", "Lift the active mute of a member", "mod", liftHandler(svc, punishment.TypeMute)).
		WithOptions(userOption("Member to unmute"), reasonOption()).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuild()
}

func createUnbanCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand("unban", "Lift the active ban of a user", "mod", liftHandler(svc, punishment.TypeBan)).
		WithOptions(userOption("User to unban"), reasonOption()).
		WithUserPermissions(discordgo.PermissionBanMembers).
		InGuild()
}

// sanctionHandler runs authorization then the engine for one type. The
// reply is deferred because the DM and the platform call may take longer
// than the interaction deadline.
func sanctionHandler(svc *services.Services, t punishment.Type) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		guild := resolveGuild(ctx)
		caller := ctx.User()
		actor := actorFor(guild, caller.ID, ctx.Member())
		target := actorFor(guild, user.ID, resolveMember(ctx, user.ID))

		decision, err := svc.Engine.Authorize(ctx.Context(), ctx.GuildID(), actor, target)
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo autorizar %s en %s: %v", t, ctx.GuildID(), err), "Mod")
			return ctx.ReplyEphemeral("Couldn't read the punishment config. Try again later.")
		}
		if !decision.Allowed() {
			return ctx.ReplyEphemeral(denyMessage(decision, user.Mention()))
		}

		if err := ctx.Defer(); err != nil {
			return err
		}

		duration := ""
		if t.Durable() {
			duration = ctx.GetStringOption("duration")
			if duration == "" {
				duration = DefaultDuration
			}
		}

		res, err := svc.Engine.Sanction(ctx.Context(), moderation.SanctionRequest{
			GuildID:  ctx.GuildID(),
			TargetID: user.ID,
			ActorID:  caller.ID,
			Type:     t,
			Reason:   ctx.GetStringOption("reason"),
			Duration: duration,
		})
		if err != nil {
			msg, expected := failureMessage(err, t, user.Username)
			if !expected {
				logger.Error(fmt.Sprintf("%s de %s en %s falló: %v", t, user.ID, ctx.GuildID(), err), "Mod")
			}
			return ctx.EditReply(msg)
		}
		if res.Outcome == moderation.AlreadySanctioned {
			return ctx.EditReply(alreadyMessage(t, user.Username))
		}
		return ctx.EditReply(sanctionedMessage(res.Punishment, user.Username))
	}
}

// liftHandler removes the active record of type t for the chosen user.
func liftHandler(svc *services.Services, t punishment.Type) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		user := ctx.GetUserOption("user")
		if user == nil {
			return ctx.ReplyEphemeral("You must specify a user.")
		}

		active, err := svc.Punishments.GetActive(ctx.Context(), ctx.GuildID(), user.ID, t)
		if err != nil {
			logger.Error(fmt.Sprintf("No se pudo leer el %s activo de %s: %v", t, user.ID, err), "Mod")
			return ctx.ReplyEphemeral("Something went wrong while reading punishments. Try again later.")
		}
		if active == nil {
			return ctx.ReplyEphemeral(notSanctionedMessage(t, user.Username))
		}

		if err := ctx.Defer(); err != nil {
			return err
		}

		actorID := ctx.User().ID
		removed, err := svc.Engine.Remove(ctx.Context(), moderation.RemoveRequest{
			GuildID:      ctx.GuildID(),
			PunishmentID: active.ID,
			ActorID:      &actorID,
			Reason:       ctx.GetStringOption("reason"),
		})
		if err != nil {
			msg, expected := removalFailureMessage(err, t, user.Username)
			if !expected {
				logger.Error(fmt.Sprintf("No se pudo quitar #%d: %v", active.ID, err), "Mod")
			}
			return ctx.EditReply(msg)
		}
		return ctx.EditReply(removedMessage(removed, user.Username))
	}
}
