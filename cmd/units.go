package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/unit"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load every unit offline and report definition errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, options{})
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.bot.Manager.LoadAll(ctx)
		n := printFailures(cmd.ErrOrStderr(), err)
		fmt.Fprintf(cmd.OutOrStdout(), "%d unit(s) valid, %d invalid\n", len(a.bot.Manager.Units()), n)
		if n > 0 {
			return fmt.Errorf("%d unit(s) failed validation", n)
		}
		return err
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the units that would be loaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, options{})
		if err != nil {
			return err
		}
		defer a.Close()

		loadErr := a.bot.Manager.LoadAll(ctx)
		printUnits(cmd.OutOrStdout(), a.bot.Manager.Units())
		printFailures(cmd.ErrOrStderr(), loadErr)
		return nil
	},
}

// printFailures writes one line per failed artifact and returns how many there were.
func printFailures(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var failures []error
	collect(err, &failures)
	for _, f := range failures {
		fmt.Fprintf(w, "error: %v\n", f)
	}
	return len(failures)
}

// collect flattens joined errors and batch errors into their leaves, keyed by artifact.
func collect(err error, out *[]error) {
	if batch, ok := err.(*errs.BatchError); ok {
		for _, key := range batch.Keys() {
			*out = append(*out, fmt.Errorf("%s: %w", key, batch.Failures[key]))
		}
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collect(e, out)
		}
		return
	}
	*out = append(*out, err)
}

func printUnits(w io.Writer, units []unit.Unit) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tENABLED\tCATEGORY\tLOCATION")
	for _, u := range units {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", u.Kind(), u.Name(), u.Enabled(), u.Category(), u.Location())
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(validateCmd, unitsCmd)
}
