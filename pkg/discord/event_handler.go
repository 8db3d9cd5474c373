package discord

import (
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler manages event registration
type EventHandler struct {
	client *ExtendedClient
	count  int
	mu     sync.Mutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{client: client}
}

// RegisterEvent adds an event handler to the Discord session
func (eh *EventHandler) RegisterEvent(handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.count++
	eh.mu.Unlock()
}

// Count returns how many handlers were registered
func (eh *EventHandler) Count() int {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	return eh.count
}

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// GuildCreateHandler is called when the bot joins a guild or the guild
// becomes available after connecting
type GuildCreateHandler func(s *discordgo.Session, g *discordgo.GuildCreate)

// GuildDeleteHandler is called when the bot leaves a guild
type GuildDeleteHandler func(s *discordgo.Session, g *discordgo.GuildDelete)

// GuildMemberUpdateHandler is called when a member is updated
type GuildMemberUpdateHandler func(s *discordgo.Session, m *discordgo.GuildMemberUpdate)

// GuildBanRemoveHandler is called when a user is unbanned
type GuildBanRemoveHandler func(s *discordgo.Session, b *discordgo.GuildBanRemove)

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.RegisterEvent(func(s *discordgo.Session, r *discordgo.Ready) {
		defer errors.RecoverMiddleware()()
		handler(s, r)
	})
	logger.Debug("Evento 'Ready' registrado", "EventHandler")
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) {
	eh.RegisterEvent(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		defer errors.RecoverMiddleware()()
		handler(s, g)
	})
	logger.Debug("Evento 'GuildCreate' registrado", "EventHandler")
}

// OnGuildDelete registers a guild delete event handler
func (eh *EventHandler) OnGuildDelete(handler GuildDeleteHandler) {
	eh.RegisterEvent(func(s *discordgo.Session, g *discordgo.GuildDelete) {
		defer errors.RecoverMiddleware()()
		handler(s, g)
	})
	logger.Debug("Evento 'GuildDelete' registrado", "EventHandler")
}

// OnGuildMemberUpdate registers a guild member update event handler
func (eh *EventHandler) OnGuildMemberUpdate(handler GuildMemberUpdateHandler) {
	eh.RegisterEvent(func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		defer errors.RecoverMiddleware()()
		handler(s, m)
	})
	logger.Debug("Evento 'GuildMemberUpdate' registrado", "EventHandler")
}

// OnGuildBanRemove registers a guild ban remove event handler
func (eh *EventHandler) OnGuildBanRemove(handler GuildBanRemoveHandler) {
	eh.RegisterEvent(func(s *discordgo.Session, b *discordgo.GuildBanRemove) {
		defer errors.RecoverMiddleware()()
		handler(s, b)
	})
	logger.Debug("Evento 'GuildBanRemove' registrado", "EventHandler")
}
