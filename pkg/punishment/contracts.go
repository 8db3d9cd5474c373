package punishment

import (
	"context"
	"time"
)

// Backend applies and revokes sanctions against the live platform. Calls
// may block on the network; they honour ctx and are never retried.
type Backend interface {
	ApplyMute(ctx context.Context, guildID, userID, roleID, reason string) error
	RevokeMute(ctx context.Context, guildID, userID, roleID, reason string) error
	ApplyBan(ctx context.Context, guildID, userID, reason string) error
	RevokeBan(ctx context.Context, guildID, userID, reason string) error
	Kick(ctx context.Context, guildID, userID, reason string) error
	// DM delivers a private message. Failure is not an error.
	DM(ctx context.Context, userID, text string) bool
}

// GuildDirectory resolves display names for guilds. Optional.
type GuildDirectory interface {
	GuildName(guildID string) string
}

// Repository is the only component that touches punishment storage.
// Lookups return nil, nil when nothing matches.
type Repository interface {
	Create(ctx context.Context, guildID, userID string, moderatorID *string, t Type, reason string, expiresAt *time.Time) (*Punishment, error)
	GetByID(ctx context.Context, guildID string, id int64) (*Punishment, error)
	GetActive(ctx context.Context, guildID, userID string, t Type) (*Punishment, error)
	ListForUser(ctx context.Context, guildID, userID string, t *Type) ([]*Punishment, error)
	ListExpiringGlobally(ctx context.Context, within time.Duration) ([]*Punishment, error)
	// Deactivate only transitions an active record. It returns nil, nil when
	// the record was already inactive.
	Deactivate(ctx context.Context, guildID string, id int64, removedBy *string, reason string) (*Punishment, error)
}

// PolicyStore persists per-guild policy rows.
type PolicyStore interface {
	EnsureExists(ctx context.Context, guildID string) error
	// Get returns ErrPolicyNotFound when EnsureExists was never called.
	Get(ctx context.Context, guildID string) (*Policy, error)
	GetOrCreate(ctx context.Context, guildID string) (*Policy, error)
	Update(ctx context.Context, guildID string, u PolicyUpdate, updatedBy string) (*Policy, error)
}
