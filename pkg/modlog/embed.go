package modlog

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

const (
	colorKick    = 0xFEE75C
	colorWarn    = 0x1ABC9C
	colorMute    = 0x2ECC71
	colorBan     = 0xE74C3C
	colorRemoval = 0xEB459E
	colorUnknown = 0x393A41
)

// TypeColor returns the embed color of a punishment type.
func TypeColor(t punishment.Type) int {
	switch t {
	case punishment.TypeKick:
		return colorKick
	case punishment.TypeWarn:
		return colorWarn
	case punishment.TypeMute:
		return colorMute
	case punishment.TypeBan:
		return colorBan
	default:
		return colorUnknown
	}
}

func mention(id *string) string {
	if id == nil {
		return "?"
	}
	return "<@" + *id + ">"
}

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "❎"
}

// BuildEmbed renders the moderation log embed for an entry.
func BuildEmbed(entry Entry, now time.Time) *discordgo.MessageEmbed {
	p := entry.Punishment
	removal := entry.Kind != KindSanctioned

	title := fmt.Sprintf("%s | Case #%d", p.Type.DisplayName(), p.ID)
	color := TypeColor(p.Type)
	reason := p.Reason
	if removal {
		title = fmt.Sprintf("%s | Case #%d", p.Type.RemovalName(), p.ID)
		color = colorRemoval
		if p.RemovedReason != nil {
			reason = *p.RemovedReason
		}
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("<@%s> (%s)", p.UserID, p.UserID), Inline: true},
		{Name: "Moderator", Value: mention(entry.ActorID), Inline: true},
		{Name: "Reason", Value: reason},
	}

	if !removal && p.Type.Durable() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  punishment.FormatElapsed(p.AddedAt, p.ExpiresAt),
			Inline: true,
		})
	}
	if entry.Kind == KindDrift {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Source",
			Value: "Removed outside the bot",
		})
	}

	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Punishment ID", Value: fmt.Sprintf("**%d**", p.ID), Inline: true},
		&discordgo.MessageEmbedField{Name: "Private DM", Value: check(entry.DMSent), Inline: true},
	)

	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Fields:    fields,
		Timestamp: now.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
	}
}
