package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/helpers"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <file.csv>",
	Short: "Show how a CSV file maps onto the reading columns",
	Long: `Load a CSV file and print the detected columns, unmapped headers,
timestamp layout, statuses and date range. Use it to check a new export
before writing a profile for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

var discoverFormat string

func init() {
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "pretty", "output format: json or pretty")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := checkFormat(discoverFormat, "json", "pretty"); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	_, info, err := helpers.Inspect(data, profile)
	if err != nil {
		return err
	}
	info.Name = filepath.Base(args[0])
	logger.Debug("dataset inspected", "file", info.Name, "columns", len(info.Columns), "unmapped", len(info.Unmapped))
	return writeJSON(cmd.OutOrStdout(), info, discoverFormat)
}
