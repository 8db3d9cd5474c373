package admin

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

const manifestColor = 0x393A41

func joinMentions(ids []string, format string) string {
	if len(ids) == 0 {
		return "None"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf(format, id)
	}
	return strings.Join(parts, ", ")
}

func optionalMention(id *string, format string) string {
	if id == nil {
		return "None"
	}
	return fmt.Sprintf(format, *id)
}

// manifestEmbed renders the guild policy.
func manifestEmbed(p *punishment.Policy, guildName string) *discordgo.MessageEmbed {
	description := fmt.Sprintf(
		"**Protected roles**: %s\n**Protected users**: %s\n\n**Muted role**: %s\n**Logging channel**: %s\n",
		joinMentions(p.ProtectedRoleIDs, "<@&%s>"),
		joinMentions(p.ProtectedUserIDs, "<@%s>"),
		optionalMention(p.MutedRoleID, "<@&%s>"),
		optionalMention(p.LoggingChannelID, "<#%s>"),
	)

	return &discordgo.MessageEmbed{
		Title:       "Punishment manifest for " + guildName,
		Description: description,
		Color:       manifestColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "**Updated at**", Value: fmt.Sprintf("<t:%d:f>", p.UpdatedAt.Unix()), Inline: true},
			{Name: "**Updated by**", Value: optionalMention(p.UpdatedBy, "<@%s>"), Inline: true},
		},
	}
}

// listEdit describes one add or remove on a protected list.
type listEdit struct {
	add     bool
	subject string // "Role" or "User"
	field   string // "protected roles" or "protected users"
	id      string
	mention string
}

// apply returns the new list and the reply. ok is false when the edit is a
// no-op and nothing must be written.
func (e listEdit) apply(current []string) (next []string, reply string, ok bool) {
	present := false
	for _, id := range current {
		if id == e.id {
			present = true
			break
		}
	}

	if e.add {
		if present {
			return nil, fmt.Sprintf("%s %s is present!", e.subject, e.mention), false
		}
		return punishment.AddID(current, e.id),
			fmt.Sprintf("Updated punishment config **%s** by adding %s", e.field, e.mention), true
	}
	if !present {
		return nil, fmt.Sprintf("%s %s is not present!", e.subject, e.mention), false
	}
	return punishment.RemoveID(current, e.id),
		fmt.Sprintf("Updated punishment config **%s** by removing %s", e.field, e.mention), true
}
