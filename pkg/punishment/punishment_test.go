package punishment

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{"ban", TypeBan, false},
		{"MUTE", TypeMute, false},
		{" Kick ", TypeKick, false},
		{"warn", TypeWarn, false},
		{"jail", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				if !IsValidation(err, InvalidType) {
					t.Errorf("ParseType(%q) error = %v, want InvalidType", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseType(%q) = %v, %v, want %v", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestTypeDurable(t *testing.T) {
	for _, typ := range AllTypes {
		want := typ == TypeBan || typ == TypeMute
		if got := typ.Durable(); got != want {
			t.Errorf("%s.Durable() = %v, want %v", typ, got, want)
		}
	}
}

func TestHasExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		expires *time.Time
		want    bool
	}{
		{"permanent", nil, false},
		{"past", &past, true},
		{"exactly now", &now, true},
		{"future", &future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Punishment{Type: TypeMute, ExpiresAt: tt.expires}
			if got := p.HasExpired(now); got != tt.want {
				t.Errorf("HasExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicyProtection(t *testing.T) {
	p := &Policy{
		ProtectedRoleIDs: []string{"r1", "r2"},
		ProtectedUserIDs: []string{"u1"},
	}

	if !p.IsProtectedUser("u1") {
		t.Error("u1 should be protected")
	}
	if p.IsProtectedUser("u2") {
		t.Error("u2 should not be protected")
	}
	if !p.HoldsProtectedRole([]string{"x", "r2"}) {
		t.Error("holder of r2 should be protected")
	}
	if p.HoldsProtectedRole(nil) {
		t.Error("no roles should not be protected")
	}
}

func TestAddRemoveID(t *testing.T) {
	ids := AddID(nil, "a")
	ids = AddID(ids, "b")
	ids = AddID(ids, "a")
	if len(ids) != 2 {
		t.Fatalf("AddID length = %v, want %v", len(ids), 2)
	}

	ids = RemoveID(ids, "a")
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("RemoveID = %v, want [b]", ids)
	}

	empty := RemoveID([]string{"b"}, "b")
	if empty == nil {
		t.Error("RemoveID should return a non-nil slice")
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")

	var storage error = &StorageError{Op: "create", Err: cause}
	if !errors.Is(fmt.Errorf("sanction: %w", storage), cause) {
		t.Error("StorageError should unwrap to its cause")
	}

	var enf *EnforcementError
	wrapped := fmt.Errorf("sanction: %w", &EnforcementError{Op: "ban", Err: cause})
	if !errors.As(wrapped, &enf) || enf.Op != "ban" {
		t.Error("EnforcementError should be recoverable with errors.As")
	}
}
