package main

import (
	"fmt"
	"io"
	"time"

	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/spf13/cobra"
)

type windowOptions struct {
	start      string
	end        string
	asOf       string
	configFile string
}

type windowOutput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newWindowCmd() *cobra.Command {
	opts := &windowOptions{}
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Resolve the closing window for a pair of closing days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd.OutOrStdout(), opts, time.Now())
		},
	}
	cmd.Flags().StringVar(&opts.start, "start", "", "closing start day")
	cmd.Flags().StringVar(&opts.end, "end", "", "closing end day")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "evaluation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "dashboard config file")
	return cmd
}

func runWindow(out io.Writer, opts *windowOptions, now time.Time) error {
	cfg, err := loadDashboardConfig(opts.configFile)
	if err != nil {
		return err
	}

	asOf, err := parseAsOf(opts.asOf, now, cfg.Location())
	if err != nil {
		return err
	}

	window, ok := closingperiod.ResolveWindow(opts.start, opts.end, asOf)
	if !ok {
		return fmt.Errorf("closing days %q and %q are not integers", opts.start, opts.end)
	}

	return writeJSON(out, windowOutput{
		Start: window.Start.Format(time.RFC3339Nano),
		End:   window.End.Format(time.RFC3339Nano),
	})
}
