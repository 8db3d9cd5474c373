package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

// auditSettle gives Discord time to write the audit log entry before it is
// read.
const auditSettle = time.Second

// AuditLookup finds who lifted a sanction outside the bot.
type AuditLookup interface {
	FindRoleRemoval(ctx context.Context, guildID, userID, roleID string) (*discord.AuditAction, error)
	FindUnban(ctx context.Context, guildID, userID string) (*discord.AuditAction, error)
}

// Reconciler closes active records whose sanction vanished.
type Reconciler interface {
	ReconcileDrift(ctx context.Context, guildID, userID string, t punishment.Type, reason string) (*punishment.Punishment, error)
}

// DriftWatcher turns platform events into drift reconciliation.
type DriftWatcher struct {
	policies punishment.PolicyStore
	repo     punishment.Repository
	audit    AuditLookup
	engine   Reconciler
	// botID returns the bot user id; removals it made itself are skipped.
	botID  func() string
	settle time.Duration
}

// NewDriftWatcher builds a watcher with the default audit settle delay.
func NewDriftWatcher(policies punishment.PolicyStore, repo punishment.Repository, audit AuditLookup, engine Reconciler, botID func() string) *DriftWatcher {
	return &DriftWatcher{
		policies: policies,
		repo:     repo,
		audit:    audit,
		engine:   engine,
		botID:    botID,
		settle:   auditSettle,
	}
}

func hasRole(roles []string, id string) bool {
	for _, r := range roles {
		if r == id {
			return true
		}
	}
	return false
}

func (w *DriftWatcher) wait(ctx context.Context) error {
	if w.settle <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(w.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// reasonFrom picks the audit reason. ok is false when the bot itself made
// the change.
func (w *DriftWatcher) reasonFrom(action *discord.AuditAction) (reason string, ok bool) {
	if action == nil {
		return moderation.DriftReason, true
	}
	if w.botID != nil && action.ActorID != "" && action.ActorID == w.botID() {
		return "", false
	}
	if action.Reason == "" {
		return moderation.DriftReason, true
	}
	return action.Reason, true
}

// MemberUpdated checks whether the muted role was taken away. before is nil
// when the previous member state was not cached; the active record is then
// consulted instead.
func (w *DriftWatcher) MemberUpdated(ctx context.Context, guildID, userID string, before, after []string) {
	policy, err := w.policies.Get(ctx, guildID)
	if errors.Is(err, punishment.ErrPolicyNotFound) {
		return
	}
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo leer la política de %s: %v", guildID, err), "Drift")
		return
	}
	if policy.MutedRoleID == nil {
		return
	}
	roleID := *policy.MutedRoleID
	if hasRole(after, roleID) {
		return
	}

	if before != nil {
		if !hasRole(before, roleID) {
			return
		}
	} else {
		active, err := w.repo.GetActive(ctx, guildID, userID, punishment.TypeMute)
		if err != nil || active == nil {
			return
		}
	}

	if err := w.wait(ctx); err != nil {
		return
	}

	action, err := w.audit.FindRoleRemoval(ctx, guildID, userID, roleID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo leer el registro de auditoría de %s: %v", guildID, err), "Drift")
	}
	reason, ok := w.reasonFrom(action)
	if !ok {
		return
	}

	w.reconcile(ctx, guildID, userID, punishment.TypeMute, reason)
}

// Unbanned closes the active ban of a user unbanned outside the bot.
func (w *DriftWatcher) Unbanned(ctx context.Context, guildID, userID string) {
	active, err := w.repo.GetActive(ctx, guildID, userID, punishment.TypeBan)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo leer el ban activo de %s: %v", userID, err), "Drift")
		return
	}
	if active == nil {
		return
	}

	if err := w.wait(ctx); err != nil {
		return
	}

	action, err := w.audit.FindUnban(ctx, guildID, userID)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo leer el registro de auditoría de %s: %v", guildID, err), "Drift")
	}
	reason, ok := w.reasonFrom(action)
	if !ok {
		return
	}

	w.reconcile(ctx, guildID, userID, punishment.TypeBan, reason)
}

func (w *DriftWatcher) reconcile(ctx context.Context, guildID, userID string, t punishment.Type, reason string) {
	if _, err := w.engine.ReconcileDrift(ctx, guildID, userID, t, reason); err != nil {
		logger.Error(fmt.Sprintf("No se pudo reconciliar el %s de %s en %s: %v", t, userID, guildID, err), "Drift")
	}
}
