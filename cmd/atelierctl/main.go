// Command atelierctl computes production dashboard metrics offline from a
// fixture file, using the same engine and dashboard config as the API.
//
// Usage:
//
//	atelierctl metrics --file refs.yaml --as-of 2024-12-15
//	atelierctl window --start 10 --end 10 --as-of 2024-12-05 --config dashboard.yml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "atelierctl",
		Short:         "Inspect production dashboard metrics offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMetricsCmd(), newWindowCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
