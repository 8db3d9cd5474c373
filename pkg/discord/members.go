package discord

import (
	"math"

	"github.com/bwmarrin/discordgo"
)

// OwnerRank outranks every role position.
const OwnerRank = math.MaxInt32

// MemberRank returns the position of the member's highest role. The guild
// owner gets OwnerRank and a member without roles ranks 0.
func MemberRank(guild *discordgo.Guild, member *discordgo.Member) int {
	if guild == nil || member == nil {
		return 0
	}
	if member.User != nil && member.User.ID == guild.OwnerID {
		return OwnerRank
	}

	positions := make(map[string]int, len(guild.Roles))
	for _, r := range guild.Roles {
		positions[r.ID] = r.Position
	}

	rank := 0
	for _, id := range member.Roles {
		if p, ok := positions[id]; ok && p > rank {
			rank = p
		}
	}
	return rank
}

// IsAdmin reports whether the interaction member holds Administrator.
func IsAdmin(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

// HasRole reports whether member carries roleID.
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}
