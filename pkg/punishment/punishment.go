// Package punishment holds the punishment and policy models, the duration
// grammar and the collaborator contracts consumed by the lifecycle engine.
package punishment

import (
	"strings"
	"time"
)

// Type classifies a sanction.
type Type string

const (
	TypeBan  Type = "BAN"
	TypeMute Type = "MUTE"
	TypeKick Type = "KICK"
	TypeWarn Type = "WARN"
)

// DefaultReason is stored when a moderator gives no reason.
const DefaultReason = "No reason"

// AllTypes lists every known type in display order.
var AllTypes = []Type{TypeBan, TypeMute, TypeKick, TypeWarn}

// ParseType parses a type name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{Kind: InvalidType, Input: s}
	}
	return t, nil
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	switch t {
	case TypeBan, TypeMute, TypeKick, TypeWarn:
		return true
	}
	return false
}

// Durable reports whether records of this type stay active until removed.
// KICK and WARN are historical records only.
func (t Type) Durable() bool {
	return t == TypeBan || t == TypeMute
}

// DisplayName returns the capitalised name used in embeds.
func (t Type) DisplayName() string {
	switch t {
	case TypeBan:
		return "Ban"
	case TypeMute:
		return "Mute"
	case TypeKick:
		return "Kick"
	case TypeWarn:
		return "Warn"
	default:
		return "Unknown"
	}
}

// RemovalName returns the name of the reverse action ("Unmute", "Unban").
func (t Type) RemovalName() string {
	switch t {
	case TypeBan:
		return "Unban"
	case TypeMute:
		return "Unmute"
	default:
		return "Removal"
	}
}

// Punishment is one sanction instance. Rows are append-only: the only
// mutation after insert is the active -> inactive transition.
type Punishment struct {
	ID            int64      `db:"punishment_id" json:"id"`
	GuildID       string     `db:"guild_id" json:"guildId"`
	UserID        string     `db:"user_id" json:"userId"`
	AddedBy       *string    `db:"added_by" json:"addedBy,omitempty"`
	Type          Type       `db:"type" json:"type"`
	Reason        string     `db:"reason" json:"reason"`
	AddedAt       time.Time  `db:"added_at" json:"addedAt"`
	ExpiresAt     *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	RemovedBy     *string    `db:"removed_by" json:"removedBy,omitempty"`
	RemovedAt     *time.Time `db:"removed_at" json:"removedAt,omitempty"`
	RemovedReason *string    `db:"removed_reason" json:"removedReason,omitempty"`
	IsActive      bool       `db:"is_active" json:"isActive"`
}

// HasExpired reports whether the punishment has a deadline at or before now.
func (p *Punishment) HasExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Permanent reports whether a durable punishment has no expiry.
func (p *Punishment) Permanent() bool {
	return p.Type.Durable() && p.ExpiresAt == nil
}

// Policy is the per-guild punishment configuration.
type Policy struct {
	GuildID          string
	MutedRoleID      *string
	LoggingChannelID *string
	ProtectedRoleIDs []string
	ProtectedUserIDs []string
	UpdatedAt        time.Time
	UpdatedBy        *string
}

// IsProtectedUser reports whether userID is immune to punishment.
func (p *Policy) IsProtectedUser(userID string) bool {
	return contains(p.ProtectedUserIDs, userID)
}

// HoldsProtectedRole reports whether any of roleIDs is protected.
func (p *Policy) HoldsProtectedRole(roleIDs []string) bool {
	for _, id := range roleIDs {
		if contains(p.ProtectedRoleIDs, id) {
			return true
		}
	}
	return false
}

// PolicyUpdate is a partial update: nil fields keep their stored value.
type PolicyUpdate struct {
	MutedRoleID      *string
	LoggingChannelID *string
	ProtectedRoleIDs []string
	ProtectedUserIDs []string
}

// Empty reports whether the update would change nothing but the audit fields.
func (u PolicyUpdate) Empty() bool {
	return u.MutedRoleID == nil && u.LoggingChannelID == nil &&
		u.ProtectedRoleIDs == nil && u.ProtectedUserIDs == nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// AddID returns ids with id appended unless already present.
func AddID(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// RemoveID returns ids without id. The result is never nil so it can be
// used as a replacing PolicyUpdate field.
func RemoveID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
