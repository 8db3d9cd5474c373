package dev

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/services"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// CreateSweepCommand creates the /dev sweep command
func CreateSweepCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand(
		"sweep",
		"Run one expiry sweep now (developers only)",
		"dev",
		sweepHandler(svc),
	).AsDev()
}

func sweepReport(r moderation.SweepReport) string {
	if r.Skipped {
		return "⏳ A sweep is already running."
	}
	msg := fmt.Sprintf("🧹 Sweep `%s`\n• Candidates: %d\n• Removed: %d\n• Failed: %d",
		r.RunID, r.Candidates, r.Removed, r.Failed)
	if r.Err != nil {
		msg += "\n• Error: " + r.Err.Error()
	}
	return msg
}

func sweepHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		if err := ctx.Defer(); err != nil {
			return err
		}
		return ctx.EditReply(sweepReport(svc.Sweeper.RunOnce(ctx.Context())))
	}
}

// CreateExpiringCommand creates the /dev expiring command
func CreateExpiringCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand(
		"expiring",
		"Count punishments expiring within the next hour (developers only)",
		"dev",
		expiringHandler(svc),
	).AsDev()
}

func expiringHandler(svc *services.Services) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		records, err := svc.Punishments.ListExpiringGlobally(ctx.Context(), time.Hour)
		if err != nil {
			return ctx.ReplyEphemeral("❌ " + err.Error())
		}
		return ctx.ReplyEphemeral(fmt.Sprintf("⌛ %d punishments expire within the next hour.", len(records)))
	}
}

// CreateArchiveCommand creates the /dev archive command
func CreateArchiveCommand(svc *services.Services) *discord.Command {
	return discord.NewCommand(
		"archive",
		"Show the modlog archive state (developers only)",
		"dev",
		func(ctx *discord.CommandContext) error {
			status, _ := svc.Archive.GetStatus()
			return ctx.ReplyEphemeral(fmt.Sprintf("🗄️ Archive: %s\n• Pending events: %d", status, svc.Archive.QueueLen()))
		},
	).AsDev()
}
