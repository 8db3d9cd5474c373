package mod

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

func strPtr(s string) *string { return &s }

var added = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func record(id int64, t punishment.Type) *punishment.Punishment {
	return &punishment.Punishment{
		ID:       id,
		GuildID:  "g1",
		UserID:   "u1",
		AddedBy:  strPtr("mod1"),
		Type:     t,
		Reason:   "spam",
		AddedAt:  added,
		IsActive: t.Durable(),
	}
}

func TestDenyMessage(t *testing.T) {
	tests := []struct {
		decision moderation.Decision
		want     string
	}{
		{moderation.DenySelf, "You can't punish your self!"},
		{moderation.DenyProtectedUser, "<@u1> has an exception from punishments!"},
		{moderation.DenyProtectedRole, "<@u1> has an exception from punishments!"},
		{moderation.DenyRank, "<@u1> has a higher or equal role to yours."},
	}
	for _, tt := range tests {
		if got := denyMessage(tt.decision, "<@u1>"); got != tt.want {
			t.Errorf("denyMessage(%v) = %q, want %q", tt.decision, got, tt.want)
		}
	}
}

func TestSanctionedMessage(t *testing.T) {
	expires := added.Add(time.Hour)

	tempMute := record(1, punishment.TypeMute)
	tempMute.ExpiresAt = &expires
	permBan := record(2, punishment.TypeBan)

	tests := []struct {
		p    *punishment.Punishment
		want string
	}{
		{tempMute, "**@bob** has been temporarily muted for **spam**."},
		{permBan, "**@bob** has been permanently banned for **spam**."},
		{record(3, punishment.TypeKick), "**@bob** has been kicked for **spam**."},
		{record(4, punishment.TypeWarn), "**@bob** has been warned for **spam**."},
	}
	for _, tt := range tests {
		if got := sanctionedMessage(tt.p, "bob"); got != tt.want {
			t.Errorf("sanctionedMessage(%s) = %q, want %q", tt.p.Type, got, tt.want)
		}
	}
}

func TestAlreadyAndNotSanctioned(t *testing.T) {
	if got := alreadyMessage(punishment.TypeBan, "bob"); got != "**@bob** is already banned!" {
		t.Errorf("alreadyMessage = %q", got)
	}
	if got := alreadyMessage(punishment.TypeMute, "bob"); got != "**@bob** is already muted!" {
		t.Errorf("alreadyMessage = %q", got)
	}
	if got := notSanctionedMessage(punishment.TypeMute, "bob"); got != "**@bob** is not muted!" {
		t.Errorf("notSanctionedMessage = %q", got)
	}
}

func TestRemovedMessage(t *testing.T) {
	p := record(7, punishment.TypeMute)
	p.RemovedReason = strPtr("appeal")
	if got := removedMessage(p, "bob"); got != "**@bob**'s punishment **#7** has been removed for **appeal**" {
		t.Errorf("removedMessage = %q", got)
	}

	p.RemovedReason = nil
	if got := removedMessage(p, "bob"); !strings.HasSuffix(got, "**No reason**") {
		t.Errorf("removedMessage without reason = %q", got)
	}
}

func TestFailureMessage(t *testing.T) {
	enforcement := &punishment.EnforcementError{Op: "apply BAN", Err: errors.New("403")}

	tests := []struct {
		name     string
		err      error
		typ      punishment.Type
		want     string
		expected bool
	}{
		{"duration", &punishment.ValidationError{Kind: punishment.InvalidDuration, Input: "5x"}, punishment.TypeBan, "Invalid duration **5x**", true},
		{"muted role", &punishment.ValidationError{Kind: punishment.MissingMutedRole}, punishment.TypeMute, "No muted role is configured", true},
		{"not active", fmt.Errorf("remove: %w", punishment.ErrNotActive), punishment.TypeMute, "Punishment is currently not active!", true},
		{"ban enforcement", enforcement, punishment.TypeBan, "Wasn't able to ban **bob**. Aborting!", false},
		{"mute enforcement", enforcement, punishment.TypeMute, "Wasn't able to add mute to **bob**. Aborting!", false},
		{"storage", &punishment.StorageError{Op: "insert", Err: errors.New("disk full")}, punishment.TypeWarn, "Something went wrong", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, expected := failureMessage(tt.err, tt.typ, "bob")
			if !strings.Contains(got, tt.want) {
				t.Errorf("message = %q, want it to contain %q", got, tt.want)
			}
			if expected != tt.expected {
				t.Errorf("expected = %v, want %v", expected, tt.expected)
			}
		})
	}
}

func TestRemovalFailureMessage(t *testing.T) {
	err := &punishment.EnforcementError{Op: "revoke BAN", Err: errors.New("404")}
	got, expected := removalFailureMessage(err, punishment.TypeBan, "bob")
	if got != "Wasn't able to unban **bob**. Aborting!" || expected {
		t.Errorf("removalFailureMessage = %q, %v", got, expected)
	}

	got, _ = removalFailureMessage(punishment.ErrNotActive, punishment.TypeMute, "bob")
	if got != "Punishment is currently not active!" {
		t.Errorf("removalFailureMessage(not active) = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	warn := record(1, punishment.TypeWarn)
	out := describe(warn, "bot")
	if !strings.Contains(out, "**Punishment type**: **Warn**") || !strings.Contains(out, "<@mod1>") {
		t.Errorf("describe(warn) = %q", out)
	}
	if strings.Contains(out, "Duration") {
		t.Error("historical records have no duration line")
	}

	expires := added.Add(48 * time.Hour)
	removedAt := added.Add(time.Hour)
	mute := record(2, punishment.TypeMute)
	mute.ExpiresAt = &expires
	mute.IsActive = false
	mute.RemovedAt = &removedAt
	mute.RemovedReason = strPtr("Automatic")

	out = describe(mute, "bot")
	for _, want := range []string{"**Duration**: **2d**", "**Removed by**: <@bot>", "**Removed reason**: Automatic", fmt.Sprintf("<t:%d:f>", removedAt.Unix())} {
		if !strings.Contains(out, want) {
			t.Errorf("describe(mute) missing %q in %q", want, out)
		}
	}
}

func TestViewEmbed(t *testing.T) {
	e := viewEmbed(record(12, punishment.TypeBan), "bob", "bot")
	if e.Title != "Punishment metadata for @bob" {
		t.Errorf("Title = %q", e.Title)
	}
	if !strings.HasPrefix(e.Description, "**Punishment ID**: **12**") {
		t.Errorf("Description = %q", e.Description)
	}
	if !strings.Contains(e.Description, "**Duration**: **Permanent**") {
		t.Errorf("permanent ban should show Permanent, got %q", e.Description)
	}
}

func TestModlogEmbedPaging(t *testing.T) {
	records := make([]*punishment.Punishment, 0, 7)
	for i := 7; i >= 1; i-- {
		records = append(records, record(int64(i), punishment.TypeWarn))
	}

	tests := []struct {
		page      int
		wantFirst string
		wantPage  string
	}{
		{1, "**#7**", "Page 1/3"},
		{2, "**#4**", "Page 2/3"},
		{3, "**#1**", "Page 3/3"},
		{0, "**#7**", "Page 1/3"},
		{9, "**#1**", "Page 3/3"},
	}
	for _, tt := range tests {
		e := modlogEmbed(records, nil, "bob", "bot", tt.page)
		if !strings.HasPrefix(e.Description, tt.wantFirst) {
			t.Errorf("page %d starts with %q", tt.page, e.Description[:10])
		}
		if !strings.HasPrefix(e.Footer.Text, tt.wantPage) {
			t.Errorf("page %d footer = %q", tt.page, e.Footer.Text)
		}
	}

	filter := punishment.TypeWarn
	e := modlogEmbed(records, &filter, "bob", "bot", 1)
	if e.Title != "Punishment Warn modlog for @bob" {
		t.Errorf("Title = %q", e.Title)
	}
}

func TestEmptyModlogMessage(t *testing.T) {
	if got := emptyModlogMessage(nil); got != "No punishments to display yet!" {
		t.Errorf("got %q", got)
	}
	ban := punishment.TypeBan
	if got := emptyModlogMessage(&ban); got != "No ban punishments to display yet!" {
		t.Errorf("got %q", got)
	}
}
