package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/spf13/cobra"

	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/errs"
)

var (
	dryRun       bool
	undeployType string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Reconcile the remote command registry with the unit definitions and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, options{remote: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err = a.bot.Manager.LoadAll(ctx); err != nil {
			return fmt.Errorf("refusing to deploy with broken units: %w", err)
		}

		var reports []deploy.Report
		if dryRun {
			reports, err = a.bot.Manager.Plan(ctx)
		} else {
			reports, err = a.bot.Manager.DeployAll(ctx)
		}
		printReports(cmd.OutOrStdout(), reports, dryRun)
		return err
	},
}

var undeployCmd = &cobra.Command{
	Use:   "undeploy <name>",
	Short: "Delete a command from every deploy scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := commandType(undeployType)
		if err != nil {
			return err
		}
		coordinator, err := newCoordinator(cfg.Bot)
		if err != nil {
			return err
		}

		n, err := coordinator.Undeploy(cmd.Context(), args[0], t)
		if err != nil {
			return err
		}
		if n == 0 {
			return &errs.NotFoundError{Kind: "remote command", Name: args[0]}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s from %d scope(s)\n", args[0], n)
		return nil
	},
}

func commandType(s string) (discord.ApplicationCommandType, error) {
	switch s {
	case "slash", "":
		return discord.ApplicationCommandTypeSlash, nil
	case "user":
		return discord.ApplicationCommandTypeUser, nil
	case "message":
		return discord.ApplicationCommandTypeMessage, nil
	}
	return 0, errors.New(`--type must be "slash", "user" or "message"`)
}

func printReports(w io.Writer, reports []deploy.Report, dryRun bool) {
	verb := "deployed"
	if dryRun {
		verb = "planned"
	}
	for _, r := range reports {
		if !r.Changed() {
			fmt.Fprintf(w, "%s: up to date\n", r.Scope)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", r.Scope, verb)
		for _, line := range []struct {
			sign  string
			names []string
		}{{"+", r.Created}, {"~", r.Updated}, {"-", r.Removed}} {
			if len(line.names) > 0 {
				fmt.Fprintf(w, "  %s %s\n", line.sign, strings.Join(line.names, ", "))
			}
		}
	}
}

func init() {
	deployCmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print what would change")
	undeployCmd.Flags().StringVar(&undeployType, "type", "slash", `command type: "slash", "user" or "message"`)
	rootCmd.AddCommand(deployCmd, undeployCmd)
}
