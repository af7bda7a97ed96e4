package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/engine"
	"github.com/spektr-org/iaqdash/helpers"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <file.csv>",
	Short: "Print the summary metrics of a CSV file",
	Example: `  iaqdash summary office.csv
  iaqdash summary office.csv --status Off --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

var (
	summaryFilters  filterFlags
	summaryFormat   string
	summaryTemplate string
)

func init() {
	summaryFilters.register(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryFormat, "format", "text", "output format: text, json or pretty")
	summaryCmd.Flags().StringVar(&summaryTemplate, "template", "", "reply template, e.g. \"{rows} readings over {period}\"")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	if err := checkFormat(summaryFormat, "text", "json", "pretty"); err != nil {
		return err
	}
	filters, err := summaryFilters.filters(cmd)
	if err != nil {
		return err
	}
	ds, err := helpers.LoadFile(args[0], profile)
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithLogger(logger), engine.WithUnits(profile.Units)}
	if summaryTemplate != "" {
		opts = append(opts, engine.WithReplyTemplate(summaryTemplate))
	}
	metrics := engine.Summarize(ds.Filter(filters), ds.Len(), opts...)

	if summaryFormat != "text" {
		return writeJSON(cmd.OutOrStdout(), metrics, summaryFormat)
	}
	return writeMetricsText(cmd.OutOrStdout(), metrics)
}

func writeMetricsText(w io.Writer, m engine.Metrics) error {
	_, err := fmt.Fprintf(w, "%s\n\nRows:             %d of %d\nPeriod:           %s\nStatuses:         %v\nMean temperature: %s\nMean humidity:    %s\nUndated readings: %d\n",
		m.Reply, m.Rows, m.TotalRows, m.Period, m.Statuses,
		orDash(fmtNum(float64(m.MeanTemperature))), orDash(fmtNum(float64(m.MeanHumidity))),
		m.TimestampNulls)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
