package mqtt

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/modlog"
)

// Publisher is implemented by *MqttCommunicator.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// PunishmentSink publishes every moderation log event to
// <base>/events/<guildId>/<kind>.
type PunishmentSink struct {
	pub  Publisher
	base string
}

func NewPunishmentSink(pub Publisher, base string) *PunishmentSink {
	return &PunishmentSink{pub: pub, base: base}
}

func (s *PunishmentSink) Name() string { return "mqtt" }

// Topic returns the topic an event is published to.
func (s *PunishmentSink) Topic(ev modlog.Event) string {
	return fmt.Sprintf("%s/events/%s/%s", s.base, ev.GuildID, ev.Kind)
}

func (s *PunishmentSink) Publish(ctx context.Context, ev modlog.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.pub.Publish(s.Topic(ev), ev)
}
