package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createHelpCommand creates the /utils help subcommand
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"List the available commands",
		"utils",
		helpHandler,
	)
}

// helpText lists every registered command grouped by its slash path. Dev
// commands are hidden.
func helpText(commands map[string]*discord.Command) string {
	keys := make([]string, 0, len(commands))
	for key, cmd := range commands {
		if cmd.IsDev {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("📖 **PancyMod help**\n\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "• `/%s` - %s\n", strings.ReplaceAll(key, ".", " "), commands[key].Description)
	}
	return b.String()
}

func helpHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyEphemeral(helpText(ctx.Client.Commands.All()))
}
