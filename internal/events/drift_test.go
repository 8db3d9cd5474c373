package events

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

type fakeAudit struct {
	action *discord.AuditAction
	err    error
	calls  int
}

func (f *fakeAudit) FindRoleRemoval(ctx context.Context, guildID, userID, roleID string) (*discord.AuditAction, error) {
	f.calls++
	return f.action, f.err
}

func (f *fakeAudit) FindUnban(ctx context.Context, guildID, userID string) (*discord.AuditAction, error) {
	f.calls++
	return f.action, f.err
}

type reconcileCall struct {
	guildID, userID string
	typ             punishment.Type
	reason          string
}

type fakeReconciler struct {
	calls []reconcileCall
}

func (f *fakeReconciler) ReconcileDrift(ctx context.Context, guildID, userID string, t punishment.Type, reason string) (*punishment.Punishment, error) {
	f.calls = append(f.calls, reconcileCall{guildID, userID, t, reason})
	return nil, nil
}

type driftHarness struct {
	db         *database.Database
	audit      *fakeAudit
	reconciler *fakeReconciler
	watcher    *DriftWatcher
}

func newDriftHarness(t *testing.T) *driftHarness {
	t.Helper()
	clk := clock.Fake(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC))
	db, err := database.Open(filepath.Join(t.TempDir(), "drift.db"), clk)
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	role := "muted"
	if _, err := db.Policies().GetOrCreate(ctx, "g1"); err != nil {
		t.Fatalf("GetOrCreate() returned error: %v", err)
	}
	if _, err := db.Policies().Update(ctx, "g1", punishment.PolicyUpdate{MutedRoleID: &role}, "admin"); err != nil {
		t.Fatalf("Update() returned error: %v", err)
	}

	h := &driftHarness{db: db, audit: &fakeAudit{}, reconciler: &fakeReconciler{}}
	h.watcher = NewDriftWatcher(db.Policies(), db.Punishments(), h.audit, h.reconciler, func() string { return "bot" })
	h.watcher.settle = 0
	return h
}

func (h *driftHarness) activate(t *testing.T, typ punishment.Type, user string) {
	t.Helper()
	mod := "mod"
	if _, err := h.db.Punishments().Create(context.Background(), "g1", user, &mod, typ, "spam", nil); err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
}

func TestMemberUpdatedMutedRoleRemoved(t *testing.T) {
	h := newDriftHarness(t)
	h.audit.action = &discord.AuditAction{ActorID: "m1", Reason: "appeal"}

	h.watcher.MemberUpdated(context.Background(), "g1", "u1", []string{"muted", "r1"}, []string{"r1"})

	if len(h.reconciler.calls) != 1 {
		t.Fatalf("ReconcileDrift called %d times, want 1", len(h.reconciler.calls))
	}
	got := h.reconciler.calls[0]
	if got != (reconcileCall{"g1", "u1", punishment.TypeMute, "appeal"}) {
		t.Errorf("call = %+v", got)
	}
}

func TestMemberUpdatedIgnoresBotRemoval(t *testing.T) {
	h := newDriftHarness(t)
	h.audit.action = &discord.AuditAction{ActorID: "bot", Reason: "Automatic"}

	h.watcher.MemberUpdated(context.Background(), "g1", "u1", []string{"muted"}, nil)

	if len(h.reconciler.calls) != 0 {
		t.Errorf("bot removals must not reconcile, got %+v", h.reconciler.calls)
	}
}

func TestMemberUpdatedUnrelatedChanges(t *testing.T) {
	tests := []struct {
		name          string
		before, after []string
	}{
		{"role still held", []string{"muted"}, []string{"muted", "r2"}},
		{"never held", []string{"r1"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDriftHarness(t)
			h.watcher.MemberUpdated(context.Background(), "g1", "u1", tt.before, tt.after)
			if len(h.reconciler.calls) != 0 || h.audit.calls != 0 {
				t.Errorf("reconcile calls = %d, audit calls = %d", len(h.reconciler.calls), h.audit.calls)
			}
		})
	}
}

func TestMemberUpdatedUncachedBefore(t *testing.T) {
	h := newDriftHarness(t)

	h.watcher.MemberUpdated(context.Background(), "g1", "u1", nil, []string{"r1"})
	if len(h.reconciler.calls) != 0 || h.audit.calls != 0 {
		t.Fatal("without an active mute nothing should happen")
	}

	h.activate(t, punishment.TypeMute, "u1")
	h.watcher.MemberUpdated(context.Background(), "g1", "u1", nil, []string{"r1"})
	if len(h.reconciler.calls) != 1 {
		t.Fatalf("ReconcileDrift called %d times, want 1", len(h.reconciler.calls))
	}
	if h.reconciler.calls[0].reason != moderation.DriftReason {
		t.Errorf("reason = %q, want %q", h.reconciler.calls[0].reason, moderation.DriftReason)
	}
}

func TestMemberUpdatedAuditFailure(t *testing.T) {
	h := newDriftHarness(t)
	h.audit.err = errors.New("missing access")

	h.watcher.MemberUpdated(context.Background(), "g1", "u1", []string{"muted"}, nil)

	if len(h.reconciler.calls) != 1 || h.reconciler.calls[0].reason != moderation.DriftReason {
		t.Errorf("calls = %+v", h.reconciler.calls)
	}
}

func TestMemberUpdatedWithoutPolicy(t *testing.T) {
	h := newDriftHarness(t)
	h.watcher.MemberUpdated(context.Background(), "other", "u1", []string{"muted"}, nil)
	if len(h.reconciler.calls) != 0 {
		t.Errorf("calls = %+v", h.reconciler.calls)
	}
}

func TestUnbanned(t *testing.T) {
	h := newDriftHarness(t)

	h.watcher.Unbanned(context.Background(), "g1", "u1")
	if h.audit.calls != 0 || len(h.reconciler.calls) != 0 {
		t.Fatal("unban without an active ban must be ignored")
	}

	h.activate(t, punishment.TypeBan, "u1")

	h.audit.action = &discord.AuditAction{ActorID: "bot"}
	h.watcher.Unbanned(context.Background(), "g1", "u1")
	if len(h.reconciler.calls) != 0 {
		t.Fatal("bot unbans must not reconcile")
	}

	h.audit.action = &discord.AuditAction{ActorID: "m1"}
	h.watcher.Unbanned(context.Background(), "g1", "u1")
	if len(h.reconciler.calls) != 1 {
		t.Fatalf("ReconcileDrift called %d times, want 1", len(h.reconciler.calls))
	}
	if got := h.reconciler.calls[0]; got.typ != punishment.TypeBan || got.reason != moderation.DriftReason {
		t.Errorf("call = %+v", got)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	w := &DriftWatcher{settle: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.wait(ctx); err == nil {
		t.Error("wait should return the context error")
	}
}
