package disunit

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/disgoorg/disunit/disunit/database"
	"github.com/disgoorg/disunit/disunit/manager"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
		Started:   time.Now(),
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Manager   *manager.Manager
	Version   string
	Commit    string
	Started   time.Time

	// DB and Entitlements are nil when the database is disabled.
	DB           *database.DB
	Entitlements *database.Entitlements
}

// SetupBot creates the disgo client. The unit manager and the paginator are registered as
// listeners ahead of listeners.
func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	opts := []bot.ConfigOpt{
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds, cache.FlagChannels)),
		bot.WithEventListeners(b.Paginator),
	}
	if b.Manager != nil {
		opts = append(opts, bot.WithEventListeners(b.Manager))
	}
	opts = append(opts, bot.WithEventListeners(listeners...))

	client, err := disgo.New(b.Cfg.Bot.Token, opts...)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

// SetPresence is called from the ready event unit.
func (b *Bot) SetPresence(ctx context.Context, activity string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithListeningActivity(activity),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
