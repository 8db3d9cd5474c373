// Package modlog formats lifecycle transitions into moderation log entries
// and dispatches them to the guild's logging channel and any extra sinks.
// Delivery is best-effort and asynchronous: Emit never blocks or fails.
package modlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Kind is the lifecycle transition being reported.
type Kind string

const (
	KindSanctioned Kind = "sanctioned"
	KindRemoved    Kind = "removed"
	KindDrift      Kind = "drift"
)

// Entry describes one completed transition.
type Entry struct {
	Kind       Kind
	Punishment *punishment.Punishment
	// ActorID is the moderator behind the transition, nil for automatic.
	ActorID *string
	DMSent  bool
}

// Event is the sink-facing, serialisable form of an Entry.
type Event struct {
	ID           string     `json:"id" bson:"_id"`
	Kind         Kind       `json:"kind" bson:"kind"`
	GuildID      string     `json:"guildId" bson:"guildId"`
	UserID       string     `json:"userId" bson:"userId"`
	PunishmentID int64      `json:"punishmentId" bson:"punishmentId"`
	Type         string     `json:"type" bson:"type"`
	ActorID      *string    `json:"actorId,omitempty" bson:"actorId,omitempty"`
	Reason       string     `json:"reason" bson:"reason"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	DMSent       bool       `json:"dmSent" bson:"dmSent"`
	OccurredAt   time.Time  `json:"occurredAt" bson:"occurredAt"`
}

// ChannelSender posts an embed to a guild channel.
type ChannelSender interface {
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// Sink receives every event regardless of the guild's channel setting.
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev Event) error
}

// PolicyReader is the slice of the policy store the emitter needs.
type PolicyReader interface {
	Get(ctx context.Context, guildID string) (*punishment.Policy, error)
}

const (
	// DefaultQueueSize bounds the entries waiting for delivery.
	DefaultQueueSize = 256
	// DefaultDeliveryTimeout bounds each channel send and sink publish.
	DefaultDeliveryTimeout = 10 * time.Second
)

type job struct {
	entry Entry
	now   time.Time
}

// Emitter dispatches entries from a single background worker so the
// lifecycle never waits on Discord, Mongo or MQTT. A nil *Emitter is a
// valid no-op.
type Emitter struct {
	policies PolicyReader
	sender   ChannelSender
	clock    clock.Clock
	sinks    []Sink
	timeout  time.Duration

	queue     chan job
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewEmitter builds an emitter. sender may be nil when only sinks are wanted.
func NewEmitter(policies PolicyReader, sender ChannelSender, clk clock.Clock, sinks ...Sink) *Emitter {
	return &Emitter{
		policies: policies,
		sender:   sender,
		clock:    clk,
		sinks:    sinks,
		timeout:  DefaultDeliveryTimeout,
		queue:    make(chan job, DefaultQueueSize),
		done:     make(chan struct{}),
	}
}

// AddSink registers an extra destination. Not safe after Emit starts.
func (e *Emitter) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

func (e *Emitter) start() {
	e.startOnce.Do(func() {
		go func() {
			defer close(e.done)
			for j := range e.queue {
				e.deliver(j)
			}
		}()
	})
}

// Emit queues the entry and returns at once. Delivery does not use ctx:
// the caller's context usually ends before the entry is delivered. When
// the queue is full the entry is dropped and logged.
func (e *Emitter) Emit(ctx context.Context, entry Entry) {
	if e == nil || entry.Punishment == nil {
		return
	}
	j := job{entry: entry, now: e.clock.Now()}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		logger.Debug(fmt.Sprintf("Emisor cerrado, se descarta el caso #%d", entry.Punishment.ID), "ModLog")
		return
	}
	e.start()
	select {
	case e.queue <- j:
	default:
		logger.Warn(fmt.Sprintf("Cola de registros llena, se descarta el caso #%d", entry.Punishment.ID), "ModLog")
	}
}

// Close stops accepting entries and waits for the queued ones to be
// delivered, or for ctx to end.
func (e *Emitter) Close(ctx context.Context) error {
	if e == nil {
		return nil
	}
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.start()
		close(e.queue)
		e.mu.Unlock()
	})

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Emitter) deliver(j job) {
	defer apperrors.RecoverMiddleware()()
	p := j.entry.Punishment

	if e.sender != nil && e.policies != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		e.sendToChannel(ctx, j.entry, j.now)
		cancel()
	}

	if len(e.sinks) == 0 {
		return
	}
	ev := NewEvent(j.entry, j.now)
	for _, sink := range e.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		if err := sink.Publish(ctx, ev); err != nil {
			logger.Warn(fmt.Sprintf("Sink %s rechazó el caso #%d: %v", sink.Name(), p.ID, err), "ModLog")
		}
		cancel()
	}
}

func (e *Emitter) sendToChannel(ctx context.Context, entry Entry, now time.Time) {
	p := entry.Punishment
	policy, err := e.policies.Get(ctx, p.GuildID)
	if err != nil {
		if !errors.Is(err, punishment.ErrPolicyNotFound) {
			logger.Warn(fmt.Sprintf("No se pudo leer la política del servidor %s: %v", p.GuildID, err), "ModLog")
		}
		return
	}
	if policy.LoggingChannelID == nil {
		return
	}

	if err := e.sender.SendEmbed(ctx, *policy.LoggingChannelID, BuildEmbed(entry, now)); err != nil {
		logger.Debug(fmt.Sprintf("No se pudo enviar el registro del caso #%d: %v", p.ID, err), "ModLog")
	}
}

// NewEvent converts an entry into its sink form.
func NewEvent(entry Entry, now time.Time) Event {
	p := entry.Punishment
	reason := p.Reason
	if entry.Kind != KindSanctioned && p.RemovedReason != nil {
		reason = *p.RemovedReason
	}
	return Event{
		ID:           uuid.New().String(),
		Kind:         entry.Kind,
		GuildID:      p.GuildID,
		UserID:       p.UserID,
		PunishmentID: p.ID,
		Type:         string(p.Type),
		ActorID:      entry.ActorID,
		Reason:       reason,
		ExpiresAt:    p.ExpiresAt,
		DMSent:       entry.DMSent,
		OccurredAt:   now,
	}
}
