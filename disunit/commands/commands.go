package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/handlers"
	"github.com/disgoorg/disunit/disunit/unit"
)

const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00
	DefaultColor = 0x2B2D31
)

// Register binds the built-in handlers under the ids the bundled unit definitions use.
func Register(t *handlers.Table, b *disunit.Bot) {
	t.HandleCommand("ping", PingHandler(b)).
		HandleCommand("version", VersionHandler(b)).
		HandleCommand("reload", ReloadHandler(b)).
		HandleCommand("units", UnitsHandler(b)).
		HandleCommand("deploy", DeployHandler(b)).
		HandleCommand("profile", ProfileHandler(b)).
		HandleEvent("ready", ReadyHandler(b))
}

func ptr[T any](v T) *T {
	return &v
}

func embedUpdate(embed discord.Embed) discord.MessageUpdate {
	return discord.MessageUpdate{Embeds: &[]discord.Embed{embed}}
}

func errorEmbed(title string, err error) discord.Embed {
	return discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(fmt.Sprintf("```%s```", err)).
		SetColor(ErrorColor).
		Build()
}

// parseKind accepts the values of the kind option choices.
func parseKind(s string) (unit.Kind, error) {
	k := unit.Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown unit kind %q", s)
	}
	return k, nil
}

func kindLabel(k unit.Kind) string {
	switch k {
	case unit.KindSlash:
		return "slash command"
	case unit.KindContextMenu:
		return "context menu"
	default:
		return "event"
	}
}
