package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/watch"
)

var syncCommands bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load every unit and connect to the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("Starting disunit",
			slog.String("version", version),
			slog.String("commit", commit),
		)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, cfg, options{database: true, remote: true})
		if err != nil {
			return err
		}
		defer a.shutdown(cancel)
		b := a.bot

		loadStart := time.Now()
		if err = b.Manager.LoadAll(ctx); err != nil {
			// units that loaded stay usable
			logger.LogError("Some units failed to load", err)
		}
		logger.LogSystem("Units loaded",
			slog.Int("count", len(b.Manager.Units())),
			slog.Duration("took", time.Since(loadStart)),
		)

		if err = b.SetupBot(); err != nil {
			return err
		}
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			b.Client.Close(closeCtx)
		}()

		if syncCommands {
			if _, err = b.Manager.DeployAll(ctx); err != nil {
				logger.LogError("Failed to sync commands", err)
			}
		}

		if a.audit != nil {
			a.background(func() { a.audit.Run(ctx) })
		}
		if cfg.Units.Watch {
			roots := []string{cfg.Units.Roots.Slash, cfg.Units.Roots.ContextMenu, cfg.Units.Roots.Events}
			w, err := watch.New(b.Manager, roots, time.Duration(cfg.Units.DebounceMS)*time.Millisecond)
			if err != nil {
				return err
			}
			a.background(func() {
				if err := w.Run(ctx); err != nil {
					logger.LogError("Watcher stopped", err)
				}
			})
		}

		openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
		defer openCancel()
		if err = b.Client.OpenGateway(openCtx); err != nil {
			return err
		}

		logger.Success("Bot is running, press CTRL-C to exit")
		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-s:
		case <-ctx.Done():
		}
		logger.LogSystem("Shutting down")
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&syncCommands, "sync-commands", false, "deploy every command before connecting")
	rootCmd.AddCommand(runCmd)
}
