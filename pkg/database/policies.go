package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

// policyRow is the storage shape of punishment.Policy. Id sets are kept as
// JSON arrays.
type policyRow struct {
	GuildID          string         `db:"guild_id"`
	MutedRoleID      sql.NullString `db:"muted_role_id"`
	LoggingChannelID sql.NullString `db:"logging_channel_id"`
	ProtectedRoleIDs string         `db:"protected_role_ids"`
	ProtectedUserIDs string         `db:"protected_user_ids"`
	UpdatedAt        time.Time      `db:"updated_at"`
	UpdatedBy        sql.NullString `db:"updated_by"`
}

func (row policyRow) toPolicy() (*punishment.Policy, error) {
	p := &punishment.Policy{
		GuildID:          row.GuildID,
		MutedRoleID:      nullable(row.MutedRoleID),
		LoggingChannelID: nullable(row.LoggingChannelID),
		UpdatedAt:        row.UpdatedAt,
		UpdatedBy:        nullable(row.UpdatedBy),
		ProtectedRoleIDs: []string{},
		ProtectedUserIDs: []string{},
	}
	if err := json.Unmarshal([]byte(row.ProtectedRoleIDs), &p.ProtectedRoleIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.ProtectedUserIDs), &p.ProtectedUserIDs); err != nil {
		return nil, err
	}
	return p, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PolicyStore implements punishment.PolicyStore on SQLite.
type PolicyStore struct {
	db    *sqlx.DB
	clock clock.Clock
}

var _ punishment.PolicyStore = (*PolicyStore)(nil)

// NewPolicyStore builds a policy store over an existing handle.
func NewPolicyStore(db *sqlx.DB, clk clock.Clock) *PolicyStore {
	return &PolicyStore{db: db, clock: clk}
}

// EnsureExists inserts an empty policy for the guild if none exists.
func (s *PolicyStore) EnsureExists(ctx context.Context, guildID string) error {
	query := `INSERT OR IGNORE INTO punishment_policies (guild_id, updated_at) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, guildID, s.clock.Now().UTC()); err != nil {
		return storageErr("ensure policy", err)
	}
	return nil
}

// Get returns the guild policy or punishment.ErrPolicyNotFound.
func (s *PolicyStore) Get(ctx context.Context, guildID string) (*punishment.Policy, error) {
	var row policyRow
	query := `SELECT guild_id, muted_role_id, logging_channel_id, protected_role_ids,
			  protected_user_ids, updated_at, updated_by
			  FROM punishment_policies WHERE guild_id = ?`
	if err := s.db.GetContext(ctx, &row, query, guildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, punishment.ErrPolicyNotFound
		}
		return nil, storageErr("get policy", err)
	}

	p, err := row.toPolicy()
	if err != nil {
		return nil, storageErr("decode policy", err)
	}
	return p, nil
}

// GetOrCreate ensures the row exists, then reads it.
func (s *PolicyStore) GetOrCreate(ctx context.Context, guildID string) (*punishment.Policy, error) {
	if err := s.EnsureExists(ctx, guildID); err != nil {
		return nil, err
	}
	return s.Get(ctx, guildID)
}

// Update merges the non-nil fields of u into the stored policy. Concurrent
// updates of the same field are last-write-wins.
func (s *PolicyStore) Update(ctx context.Context, guildID string, u punishment.PolicyUpdate, updatedBy string) (*punishment.Policy, error) {
	if err := s.EnsureExists(ctx, guildID); err != nil {
		return nil, err
	}

	sets := "updated_at = ?, updated_by = ?"
	args := []interface{}{s.clock.Now().UTC(), updatedBy}

	if u.MutedRoleID != nil {
		sets += ", muted_role_id = ?"
		args = append(args, emptyToNull(*u.MutedRoleID))
	}
	if u.LoggingChannelID != nil {
		sets += ", logging_channel_id = ?"
		args = append(args, emptyToNull(*u.LoggingChannelID))
	}
	if u.ProtectedRoleIDs != nil {
		encoded, err := encodeIDs(u.ProtectedRoleIDs)
		if err != nil {
			return nil, storageErr("encode protected roles", err)
		}
		sets += ", protected_role_ids = ?"
		args = append(args, encoded)
	}
	if u.ProtectedUserIDs != nil {
		encoded, err := encodeIDs(u.ProtectedUserIDs)
		if err != nil {
			return nil, storageErr("encode protected users", err)
		}
		sets += ", protected_user_ids = ?"
		args = append(args, encoded)
	}

	args = append(args, guildID)
	if _, err := s.db.ExecContext(ctx, "UPDATE punishment_policies SET "+sets+" WHERE guild_id = ?", args...); err != nil {
		return nil, storageErr("update policy", err)
	}
	return s.Get(ctx, guildID)
}

// an empty string clears a nullable column
func emptyToNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
