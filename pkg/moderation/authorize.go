package moderation

import (
	"context"
	"errors"

	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

// Actor is a guild member as seen by the authorization check.
type Actor struct {
	ID      string
	IsAdmin bool
	// Rank is the position of the member's highest role.
	Rank    int
	RoleIDs []string
}

// Decision is the outcome of Authorize.
type Decision int

const (
	Allow Decision = iota
	DenySelf
	DenyProtectedUser
	DenyProtectedRole
	DenyRank
)

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d == Allow
}

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenySelf:
		return "deny_self"
	case DenyProtectedUser:
		return "deny_protected_user"
	case DenyProtectedRole:
		return "deny_protected_role"
	case DenyRank:
		return "deny_rank"
	default:
		return "unknown"
	}
}

// Authorize decides whether actor may sanction target in guildID. Self
// targeting is refused even for administrators. When the policy cannot be
// read the decision is a denial together with the error.
func (e *Engine) Authorize(ctx context.Context, guildID string, actor, target Actor) (Decision, error) {
	if actor.ID == target.ID {
		return DenySelf, nil
	}
	if actor.IsAdmin {
		return Allow, nil
	}

	policy, err := e.policies.Get(ctx, guildID)
	switch {
	case errors.Is(err, punishment.ErrPolicyNotFound):
		policy = &punishment.Policy{GuildID: guildID}
	case err != nil:
		return DenyRank, err
	}

	if policy.IsProtectedUser(target.ID) {
		return DenyProtectedUser, nil
	}
	if policy.HoldsProtectedRole(target.RoleIDs) {
		return DenyProtectedRole, nil
	}
	if actor.Rank <= target.Rank {
		return DenyRank, nil
	}
	return Allow, nil
}
