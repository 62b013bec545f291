package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/commands"
	"github.com/disgoorg/disunit/disunit/database"
	"github.com/disgoorg/disunit/disunit/database/repositories"
	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/guard"
	"github.com/disgoorg/disunit/disunit/handlers"
	"github.com/disgoorg/disunit/disunit/loader"
	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/manager"
)

type options struct {
	database bool
	remote   bool
}

// app is the wired process: bot, manager and the optional database and deploy remote.
type app struct {
	bot   *disunit.Bot
	audit *database.AuditListener
	close []func()
	tasks errgroup.Group
}

// background runs fn in its own goroutine. fn must return once the run context is canceled.
func (a *app) background(fn func()) {
	a.tasks.Go(func() error {
		fn()
		return nil
	})
}

// shutdown cancels the run context and waits for the background tasks before the database
// and other resources they use are closed.
func (a *app) shutdown(cancel context.CancelFunc) {
	cancel()
	_ = a.tasks.Wait()
	a.Close()
}

func (a *app) Close() {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i]()
	}
}

func newApp(ctx context.Context, cfg *disunit.Config, opts options) (*app, error) {
	b := disunit.New(*cfg, version, commit)
	a := &app{bot: b}

	src, err := artifactSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var env guard.Environment = &cfg.Access
	if opts.database && cfg.DB.Enabled {
		dbStart := time.Now()
		db, err := database.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		a.close = append(a.close, db.Close)
		if err = db.InitializeSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
		logger.LogSystem("Database connected",
			slog.String("database", cfg.DB.Database),
			slog.Duration("took", time.Since(dbStart)),
		)

		b.DB = db
		b.Entitlements = database.NewEntitlements(&cfg.Access, repositories.NewEntitlementRepository(db.BunDB()), 0, 0)
		env = b.Entitlements
		a.audit = database.NewAuditListener(repositories.NewUnitEventRepository(db.BunDB()), 0)
	}

	var coordinator *deploy.Coordinator
	if opts.remote {
		if coordinator, err = newCoordinator(cfg.Bot); err != nil {
			a.Close()
			return nil, err
		}
	}

	table := handlers.New()
	commands.Register(table, b)

	b.Manager = manager.New(manager.Config{
		Loader:      loader.New(src, cfg.Units.CacheSize),
		Binder:      table,
		Roots:       cfg.Units.Roots,
		Concurrency: cfg.Units.Concurrency,
		Evaluator:   guard.NewEvaluator(env, nil),
		Coordinator: coordinator,
	})
	if a.audit != nil {
		b.Manager.AddListener(a.audit)
	}
	return a, nil
}

func artifactSource(ctx context.Context, cfg *disunit.Config) (loader.Source, error) {
	if cfg.Units.Source != disunit.SourceSpaces {
		return loader.NewFileSource(), nil
	}
	src, err := loader.NewSpacesSource(ctx, cfg.Spaces)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func newCoordinator(cfg disunit.BotConfig) (*deploy.Coordinator, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot.token is required to talk to the command registry")
	}
	appID := cfg.ApplicationID
	if appID == 0 {
		id, err := applicationIDFromToken(cfg.Token)
		if err != nil {
			return nil, err
		}
		appID = id
	}
	remote := deploy.NewRestRemote(rest.NewApplications(rest.NewClient(cfg.Token)), appID)
	return deploy.NewCoordinator(remote, cfg.DevGuilds, cfg.DeployConcurrency), nil
}

// applicationIDFromToken decodes the bot user id from the first token segment. For bots it
// equals the application id.
func applicationIDFromToken(token string) (snowflake.ID, error) {
	segment, _, ok := strings.Cut(token, ".")
	if !ok {
		return 0, errors.New("malformed bot token, set bot.application_id")
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return 0, fmt.Errorf("malformed bot token, set bot.application_id: %w", err)
	}
	return snowflake.Parse(string(raw))
}
