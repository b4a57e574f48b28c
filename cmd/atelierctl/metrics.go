package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/smallbiznis/atelier/internal/config"
	"github.com/spf13/cobra"
)

type metricsOptions struct {
	file       string
	asOf       string
	configFile string
}

func newMetricsCmd() *cobra.Command {
	opts := &metricsOptions{}
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compute dashboard metrics for a fixture of references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(cmd.OutOrStdout(), opts, time.Now())
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML file with the references")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "evaluation date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "dashboard config file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runMetrics(out io.Writer, opts *metricsOptions, now time.Time) error {
	if strings.TrimSpace(opts.file) == "" {
		return errors.New("--file is required")
	}

	cfg, err := loadDashboardConfig(opts.configFile)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	asOf, err := parseAsOf(opts.asOf, now, loc)
	if err != nil {
		return err
	}

	refs, err := loadFixture(opts.file, loc)
	if err != nil {
		return err
	}

	metrics := closingperiod.NewEngine(cfg.EngineOptions()).Compute(refs, asOf)
	return writeJSON(out, metrics)
}

// loadDashboardConfig returns the defaults unless a config file is given.
func loadDashboardConfig(file string) (config.DashboardConfig, error) {
	if strings.TrimSpace(file) == "" {
		return config.DefaultDashboardConfig(), nil
	}
	holder, err := config.LoadDashboardConfig(file, "", nil)
	if err != nil {
		return config.DashboardConfig{}, err
	}
	return holder.Get(), nil
}

// parseAsOf reads an evaluation date as noon in loc so the calendar day is
// stable whatever the offset.
func parseAsOf(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.In(loc), nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", raw, err)
	}
	return day.Add(12 * time.Hour), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
