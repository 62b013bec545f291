package cmd

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/logger"
)

var (
	version = "dev"
	commit  = "unknown"

	cfgPath   string
	cfg       *disunit.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "disunit",
	Short:         "Run and manage hot-reloadable Discord bot units",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = disunit.LoadConfig(cfgPath); err != nil {
			return err
		}
		var log *slog.Logger
		log, logCloser = logger.Setup(cfg.Log)
		slog.SetDefault(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.toml", "path to config")
}

// Execute runs the command line. version and commit are shown by the version command and the
// ready log line.
func Execute(v string, c string) error {
	version, commit = v, c
	rootCmd.Version = v
	return rootCmd.Execute()
}
