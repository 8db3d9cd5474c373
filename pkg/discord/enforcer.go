package discord

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// maxAuditReason is the length Discord accepts in X-Audit-Log-Reason.
const maxAuditReason = 512

// restSession is the slice of *discordgo.Session the Enforcer calls.
type restSession interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, options ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error)
}

// Enforcer applies punishments through the Discord REST API. It is the
// live backend of the moderation engine, the channel sender of the
// moderation log and the guild name directory.
type Enforcer struct {
	rest  restSession
	state *discordgo.State
}

// NewEnforcer builds an Enforcer on an open session.
func NewEnforcer(s *discordgo.Session) *Enforcer {
	return &Enforcer{rest: s, state: s.State}
}

func truncateReason(reason string) string {
	r := []rune(reason)
	if len(r) <= maxAuditReason {
		return reason
	}
	return string(r[:maxAuditReason])
}

func withReason(ctx context.Context, reason string) []discordgo.RequestOption {
	return []discordgo.RequestOption{
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(truncateReason(reason)),
	}
}

func (e *Enforcer) ApplyMute(ctx context.Context, guildID, userID, roleID, reason string) error {
	return e.rest.GuildMemberRoleAdd(guildID, userID, roleID, withReason(ctx, reason)...)
}

func (e *Enforcer) RevokeMute(ctx context.Context, guildID, userID, roleID, reason string) error {
	return e.rest.GuildMemberRoleRemove(guildID, userID, roleID, withReason(ctx, reason)...)
}

func (e *Enforcer) ApplyBan(ctx context.Context, guildID, userID, reason string) error {
	return e.rest.GuildBanCreateWithReason(guildID, userID, truncateReason(reason), 0, discordgo.WithContext(ctx))
}

func (e *Enforcer) RevokeBan(ctx context.Context, guildID, userID, reason string) error {
	return e.rest.GuildBanDelete(guildID, userID, withReason(ctx, reason)...)
}

func (e *Enforcer) Kick(ctx context.Context, guildID, userID, reason string) error {
	return e.rest.GuildMemberDeleteWithReason(guildID, userID, truncateReason(reason), discordgo.WithContext(ctx))
}

// DM opens a private channel and sends text. Users with closed DMs are a
// normal outcome, so failures are only logged at debug.
func (e *Enforcer) DM(ctx context.Context, userID, text string) bool {
	ch, err := e.rest.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		logger.Debug(fmt.Sprintf("No se pudo abrir DM con %s: %v", userID, err), "Enforcer")
		return false
	}
	if _, err := e.rest.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx)); err != nil {
		logger.Debug(fmt.Sprintf("No se pudo enviar DM a %s: %v", userID, err), "Enforcer")
		return false
	}
	return true
}

// SendEmbed posts an embed to a guild channel.
func (e *Enforcer) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := e.rest.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return err
}

// GuildName returns the cached guild name, or "" when the guild is unknown.
func (e *Enforcer) GuildName(guildID string) string {
	if e.state == nil {
		return ""
	}
	g, err := e.state.Guild(guildID)
	if err != nil {
		return ""
	}
	return g.Name
}

// AuditAction is the actor and reason of an audit log entry.
type AuditAction struct {
	ActorID string
	Reason  string
}

// FindRoleRemoval scans the latest member role updates for the removal of
// roleID from userID. It returns nil when no entry matches.
func (e *Enforcer) FindRoleRemoval(ctx context.Context, guildID, userID, roleID string) (*AuditAction, error) {
	log, err := e.rest.GuildAuditLog(guildID, "", "", int(discordgo.AuditLogActionMemberRoleUpdate), 5, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, entry := range log.AuditLogEntries {
		if entry.TargetID != userID {
			continue
		}
		for _, change := range entry.Changes {
			if change.Key == nil || *change.Key != discordgo.AuditLogChangeKeyRoleRemove {
				continue
			}
			if changeHasRole(change.NewValue, roleID) {
				return &AuditAction{ActorID: entry.UserID, Reason: entry.Reason}, nil
			}
		}
	}
	return nil, nil
}

// FindUnban returns the audit log entry of the latest unban of userID, or
// nil when none is visible.
func (e *Enforcer) FindUnban(ctx context.Context, guildID, userID string) (*AuditAction, error) {
	log, err := e.rest.GuildAuditLog(guildID, "", "", int(discordgo.AuditLogActionMemberBanRemove), 5, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	for _, entry := range log.AuditLogEntries {
		if entry.TargetID == userID {
			return &AuditAction{ActorID: entry.UserID, Reason: entry.Reason}, nil
		}
	}
	return nil, nil
}

// changeHasRole decodes the partial role list of a $remove change.
func changeHasRole(value interface{}, roleID string) bool {
	roles, ok := value.([]interface{})
	if !ok {
		return false
	}
	for _, r := range roles {
		role, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		if id, _ := role["id"].(string); id == roleID {
			return true
		}
	}
	return false
}
