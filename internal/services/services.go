// Package services bundles the long-lived components shared by commands,
// events and the HTTP API.
package services

import (
	"github.com/PancyStudios/PancyModGo/pkg/archive"
	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

// Services is built once in main and handed to every registrar.
// Archive and MQTT are nil when disabled.
type Services struct {
	Clock       clock.Clock
	Database    *database.Database
	Punishments punishment.Repository
	Policies    punishment.PolicyStore
	Engine      *moderation.Engine
	Sweeper     *moderation.Sweeper
	Enforcer    *discord.Enforcer
	Archive     *archive.Archive
	MQTT        *mqtt.MqttCommunicator
}

