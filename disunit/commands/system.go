package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/unit"
)

func PingHandler(b *disunit.Bot) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}
		rest := time.Since(start)

		var gw time.Duration
		if g := e.Client().Gateway(); g != nil {
			gw = g.Latency()
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("Pong!").
			AddField("Gateway", gw.Round(time.Millisecond).String(), true).
			AddField("REST", rest.Round(time.Millisecond).String(), true).
			SetColor(InfoColor).
			Build()
		_, err := e.UpdateInteractionResponse(embedUpdate(embed))
		return err
	}
}

func VersionHandler(b *disunit.Bot) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}
		_, err := e.UpdateInteractionResponse(discord.MessageUpdate{Content: ptr(versionText(b, time.Now()))})
		return err
	}
}

func versionText(b *disunit.Bot, now time.Time) string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nUptime: %s", b.Version, b.Commit, now.Sub(b.Started).Round(time.Second))
}

// ProfileHandler backs the "Profile" user context menu.
func ProfileHandler(b *disunit.Bot) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.UserCommandInteractionData()
		user := data.TargetUser()

		embed := discord.NewEmbedBuilder().
			SetTitle(user.Username).
			SetThumbnail(user.EffectiveAvatarURL()).
			AddField("ID", user.ID.String(), true).
			AddField("Created", relativeTimestamp(user.ID.Time()), true).
			SetColor(DefaultColor).
			Build()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{embed},
			Flags:  discord.MessageFlagEphemeral,
		})
	}
}

func relativeTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

// ReadyHandler runs from the ready event unit.
func ReadyHandler(b *disunit.Bot) unit.EventHandler {
	return func(ctx context.Context, e bot.Event) error {
		ready, ok := e.(*events.Ready)
		if !ok {
			return nil
		}
		slog.Info("Bot is now ready",
			slog.String("version", b.Version),
			slog.String("commit", b.Commit),
			slog.String("user", ready.User.Username),
			slog.Int("guilds", len(ready.Guilds)),
		)
		b.SetPresence(ctx, presenceText(len(b.Manager.Units())))
		return nil
	}
}

func presenceText(units int) string {
	if units == 1 {
		return "1 unit"
	}
	return fmt.Sprintf("%d units", units)
}
