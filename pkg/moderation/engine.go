// Package moderation implements the punishment lifecycle: authorization,
// sanctioning, removal, drift reconciliation and the expiry sweeper.
package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

// DriftReason is stored when a role was removed outside the bot without an
// audit log reason.
const DriftReason = "No reason provided"

// LogEmitter receives every completed transition.
type LogEmitter interface {
	Emit(ctx context.Context, entry modlog.Entry)
}

// Options holds the optional collaborators of an Engine.
type Options struct {
	Log    LogEmitter
	Guilds punishment.GuildDirectory
}

// Engine orchestrates sanctions against the backend and the repository.
// It is safe for concurrent use; the conditional Deactivate is the only
// guard between concurrent removals.
type Engine struct {
	repo     punishment.Repository
	policies punishment.PolicyStore
	backend  punishment.Backend
	clock    clock.Clock
	log      LogEmitter
	guilds   punishment.GuildDirectory
}

// NewEngine wires an engine. A nil clock defaults to clock.Real().
func NewEngine(repo punishment.Repository, policies punishment.PolicyStore, backend punishment.Backend, clk clock.Clock, opts Options) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	return &Engine{
		repo:     repo,
		policies: policies,
		backend:  backend,
		clock:    clk,
		log:      opts.Log,
		guilds:   opts.Guilds,
	}
}

// Outcome tags a SanctionResult.
type Outcome int

const (
	Sanctioned Outcome = iota
	AlreadySanctioned
)

// SanctionRequest asks for a new punishment. Duration is ignored for KICK
// and WARN.
type SanctionRequest struct {
	GuildID  string
	TargetID string
	ActorID  string
	Type     punishment.Type
	Reason   string
	Duration string
}

// SanctionResult is returned for both outcomes. For AlreadySanctioned,
// Punishment is the existing active record.
type SanctionResult struct {
	Outcome    Outcome
	Punishment *punishment.Punishment
	DMSent     bool
}

// RemoveRequest asks to lift an active punishment. A nil ActorID marks an
// automatic removal.
type RemoveRequest struct {
	GuildID      string
	PunishmentID int64
	ActorID      *string
	Reason       string
}

func (e *Engine) guildName(guildID string) string {
	if e.guilds != nil {
		if name := e.guilds.GuildName(guildID); name != "" {
			return name
		}
	}
	return guildID
}

func (e *Engine) emit(ctx context.Context, entry modlog.Entry) {
	if e.log == nil {
		return
	}
	e.log.Emit(ctx, entry)
}

// mutedRole returns the configured muted role id, or "" when none is set.
func (e *Engine) mutedRole(ctx context.Context, guildID string) (string, error) {
	policy, err := e.policies.GetOrCreate(ctx, guildID)
	if err != nil {
		return "", err
	}
	if policy.MutedRoleID == nil {
		return "", nil
	}
	return *policy.MutedRoleID, nil
}

func sanctionDM(t punishment.Type, guild, reason string, d punishment.Duration) string {
	switch t {
	case punishment.TypeKick:
		return fmt.Sprintf("You have been kicked from **%s** for **%s**.", guild, reason)
	case punishment.TypeWarn:
		return fmt.Sprintf("You have been warned from **%s** for **%s**.", guild, reason)
	}

	verb := "muted"
	if t == punishment.TypeBan {
		verb = "banned"
	}
	expiring := "**never** expiring!"
	if !d.Permanent {
		expiring = fmt.Sprintf("expiring in **%s**.", d.Raw)
	}
	return fmt.Sprintf("You have been %s from **%s** for **%s** it's %s", verb, guild, reason, expiring)
}

func cancelledDM(t punishment.Type, guild string) string {
	verb := "kick"
	if t == punishment.TypeBan {
		verb = "ban"
	}
	return fmt.Sprintf("Disregard the previous message: the %s from **%s** could not be applied.", verb, guild)
}

// Sanction applies and records a punishment. Duration parsing and the
// duplicate check happen before any side effect; a backend failure leaves
// storage untouched.
func (e *Engine) Sanction(ctx context.Context, req SanctionRequest) (SanctionResult, error) {
	if !req.Type.Valid() {
		return SanctionResult{}, &punishment.ValidationError{Kind: punishment.InvalidType, Input: string(req.Type)}
	}
	reason := req.Reason
	if reason == "" {
		reason = punishment.DefaultReason
	}

	var dur punishment.Duration
	var roleID string
	if req.Type.Durable() {
		var err error
		dur, err = punishment.ParseDuration(req.Duration)
		if err != nil {
			return SanctionResult{}, err
		}

		existing, err := e.repo.GetActive(ctx, req.GuildID, req.TargetID, req.Type)
		if err != nil {
			return SanctionResult{}, err
		}
		if existing != nil {
			return SanctionResult{Outcome: AlreadySanctioned, Punishment: existing}, nil
		}

		if req.Type == punishment.TypeMute {
			roleID, err = e.mutedRole(ctx, req.GuildID)
			if err != nil {
				return SanctionResult{}, err
			}
			if roleID == "" {
				return SanctionResult{}, &punishment.ValidationError{Kind: punishment.MissingMutedRole, Input: req.GuildID}
			}
		}
	}

	guild := e.guildName(req.GuildID)
	notice := sanctionDM(req.Type, guild, reason, dur)

	// A banned or kicked user shares no guild with the bot afterwards, so
	// those DMs go out first and are corrected if enforcement fails.
	notifyFirst := req.Type == punishment.TypeBan || req.Type == punishment.TypeKick
	dmSent := false
	if notifyFirst {
		dmSent = e.backend.DM(ctx, req.TargetID, notice)
	}

	var err error
	switch req.Type {
	case punishment.TypeMute:
		err = e.backend.ApplyMute(ctx, req.GuildID, req.TargetID, roleID, reason)
	case punishment.TypeBan:
		err = e.backend.ApplyBan(ctx, req.GuildID, req.TargetID, reason)
	case punishment.TypeKick:
		err = e.backend.Kick(ctx, req.GuildID, req.TargetID, reason)
	}
	if err != nil {
		if dmSent {
			e.backend.DM(ctx, req.TargetID, cancelledDM(req.Type, guild))
		}
		return SanctionResult{}, &punishment.EnforcementError{Op: "apply " + string(req.Type), Err: err}
	}
	if !notifyFirst {
		dmSent = e.backend.DM(ctx, req.TargetID, notice)
	}

	actor := req.ActorID
	p, err := e.repo.Create(ctx, req.GuildID, req.TargetID, &actor, req.Type, reason, dur.ExpiresAt(e.clock.Now()))
	if err != nil {
		logger.Error(fmt.Sprintf("Sanción %s aplicada a %s en %s pero no se pudo guardar: %v", req.Type, req.TargetID, req.GuildID, err), "Moderation")
		return SanctionResult{}, err
	}

	e.emit(ctx, modlog.Entry{Kind: modlog.KindSanctioned, Punishment: p, ActorID: &actor, DMSent: dmSent})
	return SanctionResult{Outcome: Sanctioned, Punishment: p, DMSent: dmSent}, nil
}

// Remove lifts an active BAN or MUTE. A concurrent removal that wins the
// race makes this call return ErrNotActive.
func (e *Engine) Remove(ctx context.Context, req RemoveRequest) (*punishment.Punishment, error) {
	p, err := e.repo.GetByID(ctx, req.GuildID, req.PunishmentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, punishment.ErrNotFound
	}
	if !p.IsActive {
		return nil, punishment.ErrNotActive
	}

	reason := req.Reason
	if reason == "" {
		reason = punishment.DefaultReason
	}

	switch p.Type {
	case punishment.TypeMute:
		roleID, err := e.mutedRole(ctx, p.GuildID)
		if err != nil {
			return nil, err
		}
		if roleID != "" {
			if err := e.backend.RevokeMute(ctx, p.GuildID, p.UserID, roleID, reason); err != nil {
				return nil, &punishment.EnforcementError{Op: "revoke MUTE", Err: err}
			}
		}
	case punishment.TypeBan:
		if err := e.backend.RevokeBan(ctx, p.GuildID, p.UserID, reason); err != nil {
			return nil, &punishment.EnforcementError{Op: "revoke BAN", Err: err}
		}
	}

	removed, err := e.repo.Deactivate(ctx, p.GuildID, p.ID, req.ActorID, reason)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		return nil, punishment.ErrNotActive
	}

	dmSent := false
	if removed.Type == punishment.TypeMute {
		dmSent = e.backend.DM(ctx, removed.UserID, unmuteDM(e.guildName(removed.GuildID)))
	}

	e.emit(ctx, modlog.Entry{Kind: modlog.KindRemoved, Punishment: removed, ActorID: req.ActorID, DMSent: dmSent})
	return removed, nil
}

func unmuteDM(guild string) string {
	return fmt.Sprintf("Hey! **You're able to chat now at %s!** Please refrain from breaking rules again.", guild)
}

// ReconcileDrift records that an active punishment was lifted outside the
// bot. The backend is not called. It returns nil, nil when nothing was
// active.
func (e *Engine) ReconcileDrift(ctx context.Context, guildID, userID string, t punishment.Type, reason string) (*punishment.Punishment, error) {
	if reason == "" {
		reason = DriftReason
	}
	p, err := e.repo.GetActive(ctx, guildID, userID, t)
	if err != nil || p == nil {
		return nil, err
	}

	removed, err := e.repo.Deactivate(ctx, guildID, p.ID, nil, reason)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		return nil, nil
	}

	dmSent := false
	if removed.Type == punishment.TypeMute {
		dmSent = e.backend.DM(ctx, userID, unmuteDM(e.guildName(guildID)))
	}
	logger.Info(fmt.Sprintf("Caso #%d (%s) levantado fuera del bot en %s", removed.ID, removed.Type, guildID), "Moderation")

	e.emit(ctx, modlog.Entry{Kind: modlog.KindDrift, Punishment: removed, DMSent: dmSent})
	return removed, nil
}

// IsUserError reports whether err should be shown to the caller as a
// plain message rather than treated as a fault.
func IsUserError(err error) bool {
	return punishment.IsValidation(err, "") ||
		errors.Is(err, punishment.ErrNotFound) ||
		errors.Is(err, punishment.ErrNotActive)
}
