package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/jmoiron/sqlx"
)

const punishmentColumns = `punishment_id, guild_id, user_id, added_by, type, reason, added_at,
	expires_at, removed_by, removed_at, removed_reason, is_active`

// PunishmentRepository implements punishment.Repository on SQLite.
type PunishmentRepository struct {
	db    *sqlx.DB
	clock clock.Clock
}

var _ punishment.Repository = (*PunishmentRepository)(nil)

// NewPunishmentRepository builds a repository over an existing handle.
func NewPunishmentRepository(db *sqlx.DB, clk clock.Clock) *PunishmentRepository {
	return &PunishmentRepository{db: db, clock: clk}
}

func storageErr(op string, err error) error {
	return &punishment.StorageError{Op: op, Err: err}
}

// Create inserts a new record. Only BAN and MUTE start active.
func (r *PunishmentRepository) Create(ctx context.Context, guildID, userID string, moderatorID *string, t punishment.Type, reason string, expiresAt *time.Time) (*punishment.Punishment, error) {
	if !t.Valid() {
		return nil, &punishment.ValidationError{Kind: punishment.InvalidType, Input: string(t)}
	}
	if reason == "" {
		reason = punishment.DefaultReason
	}

	record := punishment.Punishment{
		GuildID:  guildID,
		UserID:   userID,
		AddedBy:  moderatorID,
		Type:     t,
		Reason:   reason,
		AddedAt:  r.clock.Now().UTC(),
		IsActive: t.Durable(),
	}
	if t.Durable() && expiresAt != nil {
		e := expiresAt.UTC()
		record.ExpiresAt = &e
	}

	query := `INSERT INTO punishments (guild_id, user_id, added_by, type, reason, added_at, expires_at, is_active)
			  VALUES (:guild_id, :user_id, :added_by, :type, :reason, :added_at, :expires_at, :is_active)`

	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return nil, storageErr("create punishment", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("read inserted punishment id", err)
	}
	record.ID = id
	return &record, nil
}

// GetByID returns the record or nil when the guild has no such id.
func (r *PunishmentRepository) GetByID(ctx context.Context, guildID string, id int64) (*punishment.Punishment, error) {
	var record punishment.Punishment
	query := "SELECT " + punishmentColumns + " FROM punishments WHERE guild_id = ? AND punishment_id = ?"
	if err := r.db.GetContext(ctx, &record, query, guildID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("get punishment by id", err)
	}
	return &record, nil
}

// GetActive returns the single active record for the key, or nil.
func (r *PunishmentRepository) GetActive(ctx context.Context, guildID, userID string, t punishment.Type) (*punishment.Punishment, error) {
	var record punishment.Punishment
	query := "SELECT " + punishmentColumns + ` FROM punishments
			  WHERE guild_id = ? AND user_id = ? AND type = ? AND is_active = 1
			  ORDER BY punishment_id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &record, query, guildID, userID, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr("get active punishment", err)
	}
	return &record, nil
}

// ListForUser returns the user's full history, newest first.
func (r *PunishmentRepository) ListForUser(ctx context.Context, guildID, userID string, t *punishment.Type) ([]*punishment.Punishment, error) {
	query := "SELECT " + punishmentColumns + " FROM punishments WHERE guild_id = ? AND user_id = ?"
	args := []interface{}{guildID, userID}

	if t != nil {
		query += " AND type = ?"
		args = append(args, *t)
	}
	query += " ORDER BY punishment_id DESC"

	records := make([]*punishment.Punishment, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, storageErr("list user punishments", err)
	}
	return records, nil
}

// ListExpiringGlobally returns active BAN/MUTE records across all guilds
// whose deadline falls before now+within, soonest first.
func (r *PunishmentRepository) ListExpiringGlobally(ctx context.Context, within time.Duration) ([]*punishment.Punishment, error) {
	deadline := r.clock.Now().UTC().Add(within)

	query := "SELECT " + punishmentColumns + ` FROM punishments
			  WHERE is_active = 1 AND type IN (?, ?) AND expires_at IS NOT NULL AND expires_at <= ?
			  ORDER BY expires_at ASC, punishment_id ASC`

	records := make([]*punishment.Punishment, 0)
	if err := r.db.SelectContext(ctx, &records, query, punishment.TypeBan, punishment.TypeMute, deadline); err != nil {
		return nil, storageErr("list expiring punishments", err)
	}
	return records, nil
}

// Deactivate flips an active record to inactive. A record that is already
// inactive is left untouched and nil is returned.
func (r *PunishmentRepository) Deactivate(ctx context.Context, guildID string, id int64, removedBy *string, reason string) (*punishment.Punishment, error) {
	query := `UPDATE punishments
			  SET is_active = 0, removed_at = ?, removed_by = ?, removed_reason = ?
			  WHERE guild_id = ? AND punishment_id = ? AND is_active = 1`

	result, err := r.db.ExecContext(ctx, query, r.clock.Now().UTC(), removedBy, reason, guildID, id)
	if err != nil {
		return nil, storageErr("deactivate punishment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, storageErr("check deactivated rows", err)
	}
	if rowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, guildID, id)
}
