package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/sysinfo"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand() *discord.Command {
	return discord.NewCommand(
		"stats",
		"Show bot and host statistics",
		"utils",
		statsHandler,
	)
}

// statsHandler defers, then samples the host in the background since a CPU
// sample may outlive the interaction deadline.
func statsHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}

	go func() {
		defer errors.RecoverMiddleware()()

		sampleCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snap, err := sysinfo.Collect(sampleCtx)
		if err != nil {
			logger.Warn("Muestreo del sistema incompleto: "+err.Error(), "Stats")
		}

		memberCount := 0
		for _, guild := range ctx.Session.State.Guilds {
			memberCount += guild.MemberCount
		}

		embed := &discordgo.MessageEmbed{
			Title: "📊 Bot statistics",
			Color: 0x5865F2,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "🤖 Bot version", Value: config.Version, Inline: true},
				{Name: "🐹 Go version", Value: strings.TrimPrefix(snap.GoVersion, "go"), Inline: true},
				{Name: "📚 DiscordGo version", Value: discordgo.VERSION, Inline: true},
				{Name: "🔥 CPU", Value: fmt.Sprintf("%.1f%% of %d cores", snap.CPUPercent, snap.CPUCount), Inline: true},
				{Name: "🧠 Host memory", Value: fmt.Sprintf("%.1f%% (%d MB / %d MB)", snap.MemPercent, snap.MemUsedMB, snap.MemTotalMB), Inline: true},
				{Name: "🖥 Bot memory", Value: fmt.Sprintf("%.2f MB", snap.HeapAllocMB), Inline: true},
				{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", snap.Goroutines), Inline: true},
				{Name: "⏱ Uptime", Value: formatDuration(time.Since(ctx.Client.StartTime)), Inline: true},
				{Name: "🏠 Guilds", Value: fmt.Sprintf("%d", ctx.Client.GuildCount()), Inline: true},
				{Name: "👥 Members", Value: fmt.Sprintf("%d", memberCount), Inline: true},
			},
			Footer:    &discordgo.MessageEmbedFooter{Text: "💫 - Developed by PancyStudios"},
			Timestamp: time.Now().Format(time.RFC3339),
		}

		if err := ctx.EditReplyEmbed(embed); err != nil {
			logger.Error("No se pudo enviar las estadísticas: "+err.Error(), "Stats")
		}
	}()
	return nil
}

// formatDuration formats a time.Duration into a human-readable string
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, " ")
}
