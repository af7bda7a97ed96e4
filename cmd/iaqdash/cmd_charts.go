package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/engine"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List the chart and table ids a dashboard contains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Charts:")
		for _, id := range engine.ChartIDs() {
			fmt.Fprintf(out, "  %s\n", id)
		}
		fmt.Fprintln(out, "Tables:")
		for _, id := range engine.TableIDs() {
			fmt.Fprintf(out, "  %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
}
