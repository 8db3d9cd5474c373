package mod

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

// modlogPageSize is the number of records per /punishment modlog page.
const modlogPageSize = 3

const footerText = "💫 - Developed by PancyStudios"

func mentionID(id string) string {
	return "<@" + id + ">"
}

func timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

func pastTense(t punishment.Type) string {
	switch t {
	case punishment.TypeBan:
		return "banned"
	case punishment.TypeMute:
		return "muted"
	case punishment.TypeKick:
		return "kicked"
	case punishment.TypeWarn:
		return "warned"
	default:
		return "punished"
	}
}

func enforcementVerb(t punishment.Type) string {
	switch t {
	case punishment.TypeMute:
		return "add mute to"
	case punishment.TypeBan:
		return "ban"
	case punishment.TypeKick:
		return "kick"
	default:
		return "punish"
	}
}

// denyMessage renders the refusal for a failed authorization.
func denyMessage(d moderation.Decision, targetMention string) string {
	switch d {
	case moderation.DenySelf:
		return "You can't punish your self!"
	case moderation.DenyProtectedUser, moderation.DenyProtectedRole:
		return targetMention + " has an exception from punishments!"
	default:
		return targetMention + " has a higher or equal role to yours."
	}
}

func sanctionedMessage(p *punishment.Punishment, username string) string {
	if !p.Type.Durable() {
		return fmt.Sprintf("**@%s** has been %s for **%s**.", username, pastTense(p.Type), p.Reason)
	}
	span := "temporarily"
	if p.Permanent() {
		span = "permanently"
	}
	return fmt.Sprintf("**@%s** has been %s %s for **%s**.", username, span, pastTense(p.Type), p.Reason)
}

func alreadyMessage(t punishment.Type, username string) string {
	return fmt.Sprintf("**@%s** is already %s!", username, pastTense(t))
}

func notSanctionedMessage(t punishment.Type, username string) string {
	return fmt.Sprintf("**@%s** is not %s!", username, pastTense(t))
}

func removedMessage(p *punishment.Punishment, username string) string {
	reason := punishment.DefaultReason
	if p.RemovedReason != nil {
		reason = *p.RemovedReason
	}
	return fmt.Sprintf("**@%s**'s punishment **#%d** has been removed for **%s**", username, p.ID, reason)
}

// failureMessage maps an engine error to the reply shown to the moderator.
// The second return is false for system faults that should also be logged.
func failureMessage(err error, t punishment.Type, username string) (string, bool) {
	var v *punishment.ValidationError
	var enf *punishment.EnforcementError
	switch {
	case errors.As(err, &v) && v.Kind == punishment.InvalidDuration:
		return fmt.Sprintf("Invalid duration **%s**. Use `<n>d`, `<n>h`, `<n>m` or `permanent`.", v.Input), true
	case errors.As(err, &v) && v.Kind == punishment.MissingMutedRole:
		return "No muted role is configured. Set one with `/punishment-admin muted-role`.", true
	case errors.As(err, &v):
		return "Invalid punishment type!", true
	case errors.Is(err, punishment.ErrNotFound):
		return "No punishment found!", true
	case errors.Is(err, punishment.ErrNotActive):
		return "Punishment is currently not active!", true
	case errors.As(err, &enf):
		return fmt.Sprintf("Wasn't able to %s **%s**. Aborting!", enforcementVerb(t), username), false
	default:
		return "Something went wrong while saving the punishment. Try again later.", false
	}
}

// describe renders the metadata block shared by view and modlog.
func describe(p *punishment.Punishment, botID string) string {
	var b strings.Builder
	addedBy := "None"
	if p.AddedBy != nil {
		addedBy = mentionID(*p.AddedBy)
	}
	fmt.Fprintf(&b, "**Punishment type**: **%s**\n", p.Type.DisplayName())
	fmt.Fprintf(&b, "**Added by**: %s\n", addedBy)
	fmt.Fprintf(&b, "**Added at**: **%s**\n", timestamp(p.AddedAt))
	fmt.Fprintf(&b, "**Added reason**: %s\n", p.Reason)

	if !p.Type.Durable() {
		return b.String()
	}
	fmt.Fprintf(&b, "**Duration**: **%s**\n", punishment.FormatElapsed(p.AddedAt, p.ExpiresAt))

	if !p.IsActive {
		removedBy := mentionID(botID)
		if p.RemovedBy != nil {
			removedBy = mentionID(*p.RemovedBy)
		}
		removedAt := "?"
		if p.RemovedAt != nil {
			removedAt = timestamp(*p.RemovedAt)
		}
		removedReason := ""
		if p.RemovedReason != nil {
			removedReason = *p.RemovedReason
		}
		fmt.Fprintf(&b, "**Removed by**: %s\n", removedBy)
		fmt.Fprintf(&b, "**Removed at**: **%s**\n", removedAt)
		fmt.Fprintf(&b, "**Removed reason**: %s\n", removedReason)
	}
	return b.String()
}

func viewEmbed(p *punishment.Punishment, username, botID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Punishment metadata for @" + username,
		Description: fmt.Sprintf("**Punishment ID**: **%d**\n", p.ID) + describe(p, botID),
		Color:       modlog.TypeColor(p.Type),
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
}

// pageCount returns how many modlog pages n records fill.
func pageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + modlogPageSize - 1) / modlogPageSize
}

// modlogEmbed renders one page of a user's history. page is 1-based and is
// clamped into range.
func modlogEmbed(records []*punishment.Punishment, t *punishment.Type, username, botID string, page int) *discordgo.MessageEmbed {
	pages := pageCount(len(records))
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * modlogPageSize
	end := start + modlogPageSize
	if end > len(records) {
		end = len(records)
	}

	lines := make([]string, 0, end-start)
	for _, p := range records[start:end] {
		lines = append(lines, fmt.Sprintf("**#%d**\n", p.ID)+describe(p, botID))
	}

	title := "Punishment modlog for @" + username
	color := modlog.TypeColor("")
	if t != nil {
		title = fmt.Sprintf("Punishment %s modlog for @%s", t.DisplayName(), username)
		color = modlog.TypeColor(*t)
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.Join(lines, "\n"),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d • %s", page, pages, footerText)},
	}
}

func emptyModlogMessage(t *punishment.Type) string {
	if t == nil {
		return "No punishments to display yet!"
	}
	return fmt.Sprintf("No %s punishments to display yet!", strings.ToLower(t.DisplayName()))
}

// removalFailureMessage is failureMessage for unmute and unban.
func removalFailureMessage(err error, t punishment.Type, username string) (string, bool) {
	var enf *punishment.EnforcementError
	if errors.As(err, &enf) {
		return fmt.Sprintf("Wasn't able to %s **%s**. Aborting!", strings.ToLower(t.RemovalName()), username), false
	}
	return failureMessage(err, t, username)
}
