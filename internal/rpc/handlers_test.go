package rpc

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

type fakeRegistrar struct {
	patterns []string
}

func (f *fakeRegistrar) On(pattern string, callback mqtt.RequestHandler) {
	f.patterns = append(f.patterns, pattern)
}

func newHandlers(t *testing.T) (*Handlers, punishment.Repository) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "rpc.db"), clock.Fake(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	reg := &fakeRegistrar{}
	h := Register(reg, db.Punishments())
	if len(reg.patterns) != 3 {
		t.Fatalf("registered %d topics, want 3", len(reg.patterns))
	}
	return h, db.Punishments()
}

func TestGet(t *testing.T) {
	h, repo := newHandlers(t)
	mod := "m1"
	created, err := repo.Create(context.Background(), "g1", "u1", &mod, punishment.TypeWarn, "spam", nil)
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	got, err := h.Get(map[string]interface{}{"guildId": "g1", "id": float64(created.ID)})
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if p := got.(*punishment.Punishment); p.Reason != "spam" {
		t.Errorf("Reason = %q, want %q", p.Reason, "spam")
	}

	if _, err := h.Get(map[string]interface{}{"guildId": "g1", "id": "999"}); !errors.Is(err, punishment.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := h.Get(map[string]interface{}{"id": float64(1)}); !errors.Is(err, errMissingField) {
		t.Errorf("Get(no guild) error = %v, want errMissingField", err)
	}
	if _, err := h.Get(map[string]interface{}{"guildId": "g1", "id": "abc"}); err == nil {
		t.Error("Get(bad id) returned nil error")
	}
}

func TestListForUser(t *testing.T) {
	h, repo := newHandlers(t)
	ctx := context.Background()
	for _, typ := range []punishment.Type{punishment.TypeWarn, punishment.TypeKick, punishment.TypeWarn} {
		if _, err := repo.Create(ctx, "g1", "u1", nil, typ, "r", nil); err != nil {
			t.Fatalf("Create() returned error: %v", err)
		}
	}

	got, err := h.ListForUser(map[string]interface{}{"guildId": "g1", "userId": "u1"})
	if err != nil {
		t.Fatalf("ListForUser() returned error: %v", err)
	}
	if n := len(got.([]*punishment.Punishment)); n != 3 {
		t.Errorf("len = %d, want 3", n)
	}

	got, err = h.ListForUser(map[string]interface{}{"guildId": "g1", "userId": "u1", "type": "warn"})
	if err != nil {
		t.Fatalf("ListForUser(warn) returned error: %v", err)
	}
	if n := len(got.([]*punishment.Punishment)); n != 2 {
		t.Errorf("len(warn) = %d, want 2", n)
	}

	if _, err := h.ListForUser(map[string]interface{}{"guildId": "g1", "userId": "u1", "type": "slap"}); err == nil {
		t.Error("ListForUser(slap) returned nil error")
	}
}

func TestActive(t *testing.T) {
	h, repo := newHandlers(t)
	if _, err := repo.Create(context.Background(), "g1", "u1", nil, punishment.TypeBan, "raid", nil); err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	got, err := h.Active(map[string]interface{}{"guildId": "g1", "userId": "u1", "type": "BAN"})
	if err != nil {
		t.Fatalf("Active() returned error: %v", err)
	}
	if p := got.(*punishment.Punishment); p == nil || p.Type != punishment.TypeBan {
		t.Errorf("Active() = %v, want active ban", got)
	}

	got, err = h.Active(map[string]interface{}{"guildId": "g1", "userId": "u1", "type": "MUTE"})
	if err != nil {
		t.Fatalf("Active(MUTE) returned error: %v", err)
	}
	if p := got.(*punishment.Punishment); p != nil {
		t.Errorf("Active(MUTE) = %v, want nil", p)
	}

	if _, err := h.Active(map[string]interface{}{"guildId": "g1", "userId": "u1", "type": "WARN"}); !errors.Is(err, errMissingField) {
		t.Errorf("Active(WARN) error = %v, want errMissingField", err)
	}
}
