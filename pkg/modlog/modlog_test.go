package modlog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
)

type fakePolicies struct {
	policy *punishment.Policy
	err    error
}

func (f *fakePolicies) Get(ctx context.Context, guildID string) (*punishment.Policy, error) {
	return f.policy, f.err
}

type sentEmbed struct {
	channelID string
	embed     *discordgo.MessageEmbed
}

type fakeSender struct {
	sent []sentEmbed
	err  error
}

func (f *fakeSender) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmbed{channelID, embed})
	return nil
}

type fakeSink struct {
	events []Event
	err    error
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Publish(ctx context.Context, ev Event) error {
	f.events = append(f.events, ev)
	return f.err
}

func strPtr(s string) *string { return &s }

var testNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func samplePunishment(t punishment.Type) *punishment.Punishment {
	expires := testNow.Add(3 * time.Hour)
	p := &punishment.Punishment{
		ID:       42,
		GuildID:  "g1",
		UserID:   "u1",
		AddedBy:  strPtr("mod"),
		Type:     t,
		Reason:   "spam",
		AddedAt:  testNow,
		IsActive: t.Durable(),
	}
	if t.Durable() {
		p.ExpiresAt = &expires
	}
	return p
}

func fieldValue(embed *discordgo.MessageEmbed, name string) (string, bool) {
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func TestBuildEmbedSanction(t *testing.T) {
	tests := []struct {
		typ      punishment.Type
		color    int
		duration string
	}{
		{punishment.TypeBan, colorBan, "3h"},
		{punishment.TypeMute, colorMute, "3h"},
		{punishment.TypeKick, colorKick, ""},
		{punishment.TypeWarn, colorWarn, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			p := samplePunishment(tt.typ)
			embed := BuildEmbed(Entry{Kind: KindSanctioned, Punishment: p, ActorID: p.AddedBy, DMSent: true}, testNow)

			if embed.Color != tt.color {
				t.Errorf("color = %#x, want %#x", embed.Color, tt.color)
			}
			wantTitle := tt.typ.DisplayName() + " | Case #42"
			if embed.Title != wantTitle {
				t.Errorf("title = %q, want %q", embed.Title, wantTitle)
			}
			d, ok := fieldValue(embed, "Duration")
			if tt.duration == "" && ok {
				t.Errorf("unexpected Duration field %q", d)
			}
			if tt.duration != "" && d != tt.duration {
				t.Errorf("Duration = %q, want %q", d, tt.duration)
			}
			if v, _ := fieldValue(embed, "Private DM"); v != "✅" {
				t.Errorf("Private DM = %q", v)
			}
			if v, _ := fieldValue(embed, "Moderator"); v != "<@mod>" {
				t.Errorf("Moderator = %q", v)
			}
		})
	}
}

func TestBuildEmbedPermanent(t *testing.T) {
	p := samplePunishment(punishment.TypeBan)
	p.ExpiresAt = nil
	embed := BuildEmbed(Entry{Kind: KindSanctioned, Punishment: p}, testNow)
	if v, _ := fieldValue(embed, "Duration"); v != "Permanent" {
		t.Errorf("Duration = %q, want Permanent", v)
	}
	if v, _ := fieldValue(embed, "Moderator"); v != "?" {
		t.Errorf("Moderator = %q, want ?", v)
	}
	if v, _ := fieldValue(embed, "Private DM"); v != "❎" {
		t.Errorf("Private DM = %q", v)
	}
}

func TestBuildEmbedRemoval(t *testing.T) {
	p := samplePunishment(punishment.TypeMute)
	p.IsActive = false
	p.RemovedReason = strPtr("Automatic")

	embed := BuildEmbed(Entry{Kind: KindRemoved, Punishment: p}, testNow)
	if embed.Title != "Unmute | Case #42" {
		t.Errorf("title = %q", embed.Title)
	}
	if embed.Color != colorRemoval {
		t.Errorf("color = %#x", embed.Color)
	}
	if v, _ := fieldValue(embed, "Reason"); v != "Automatic" {
		t.Errorf("Reason = %q", v)
	}
	if _, ok := fieldValue(embed, "Duration"); ok {
		t.Error("removal should not carry a Duration field")
	}
	if _, ok := fieldValue(embed, "Source"); ok {
		t.Error("plain removal should not carry a Source field")
	}

	drift := BuildEmbed(Entry{Kind: KindDrift, Punishment: p}, testNow)
	if v, _ := fieldValue(drift, "Source"); !strings.Contains(v, "outside") {
		t.Errorf("Source = %q", v)
	}
}

func TestEmitSendsToLoggingChannel(t *testing.T) {
	policies := &fakePolicies{policy: &punishment.Policy{GuildID: "g1", LoggingChannelID: strPtr("c1")}}
	sender := &fakeSender{}
	sink := &fakeSink{}
	e := NewEmitter(policies, sender, clock.Fake(testNow), sink)

	p := samplePunishment(punishment.TypeBan)
	e.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: p, ActorID: p.AddedBy, DMSent: true})
	drain(t, e)

	if len(sender.sent) != 1 || sender.sent[0].channelID != "c1" {
		t.Fatalf("sent = %+v", sender.sent)
	}
	if len(sink.events) != 1 {
		t.Fatalf("sink events = %d, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.ID == "" || ev.PunishmentID != 42 || ev.Kind != KindSanctioned || ev.Reason != "spam" {
		t.Errorf("event = %+v", ev)
	}
	if !ev.OccurredAt.Equal(testNow) {
		t.Errorf("OccurredAt = %v", ev.OccurredAt)
	}
}

func TestEmitSkipsChannelWhenUnset(t *testing.T) {
	sender := &fakeSender{}
	sink := &fakeSink{}
	e := NewEmitter(&fakePolicies{policy: &punishment.Policy{GuildID: "g1"}}, sender, clock.Fake(testNow), sink)

	e.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: samplePunishment(punishment.TypeWarn)})
	drain(t, e)

	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0", len(sender.sent))
	}
	if len(sink.events) != 1 {
		t.Errorf("sink should still receive the event")
	}
}

func TestEmitSwallowsFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("missing access")}
	sink := &fakeSink{err: errors.New("broker down")}
	second := &fakeSink{}
	e := NewEmitter(&fakePolicies{err: errors.New("db locked")}, sender, clock.Fake(testNow), sink)
	e.AddSink(second)

	e.Emit(context.Background(), Entry{Kind: KindRemoved, Punishment: samplePunishment(punishment.TypeMute)})
	drain(t, e)

	if len(second.events) != 1 {
		t.Errorf("a failing sink must not stop the others")
	}

	e2 := NewEmitter(&fakePolicies{err: punishment.ErrPolicyNotFound}, sender, clock.Fake(testNow))
	e2.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: samplePunishment(punishment.TypeKick)})
	drain(t, e2)
}

func TestNilEmitter(t *testing.T) {
	var e *Emitter
	e.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: samplePunishment(punishment.TypeBan)})
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

// blockingSink holds every publish until release is closed or the
// delivery deadline passes.
type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	expired int
}

func (b *blockingSink) Name() string { return "blocking" }

func (b *blockingSink) Publish(ctx context.Context, ev Event) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		b.expired++
		b.mu.Unlock()
		return ctx.Err()
	}
}

func TestEmitDoesNotWaitForDelivery(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	e := NewEmitter(nil, nil, clock.Fake(testNow), sink)

	returned := make(chan struct{})
	go func() {
		e.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: samplePunishment(punishment.TypeBan)})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Emit() blocked on a slow sink")
	}
	close(sink.release)
	drain(t, e)
}

func TestDeliveryTimeoutBoundsSlowSink(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	after := &fakeSink{}
	e := NewEmitter(nil, nil, clock.Fake(testNow), sink, after)
	e.timeout = 20 * time.Millisecond

	e.Emit(context.Background(), Entry{Kind: KindRemoved, Punishment: samplePunishment(punishment.TypeMute)})
	drain(t, e)

	if sink.expired != 1 {
		t.Errorf("expired = %d, want 1", sink.expired)
	}
	if len(after.events) != 1 {
		t.Errorf("later sink events = %d, want 1", len(after.events))
	}
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(nil, nil, clock.Fake(testNow), sink)
	drain(t, e)

	e.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: samplePunishment(punishment.TypeWarn)})
	if len(sink.events) != 0 {
		t.Errorf("events = %d, want 0", len(sink.events))
	}
	drain(t, e)
}

func TestEmitDropsWhenQueueFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	e := NewEmitter(nil, nil, clock.Fake(testNow), sink)
	e.queue = make(chan job, 1)

	for i := 0; i < 5; i++ {
		e.Emit(context.Background(), Entry{Kind: KindSanctioned, Punishment: samplePunishment(punishment.TypeWarn)})
	}
	close(sink.release)
	drain(t, e)
}

func drain(t *testing.T, e *Emitter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
}
