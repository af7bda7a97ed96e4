package main

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/engine"
	"github.com/spektr-org/iaqdash/helpers"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.csv>",
	Short: "Render a dashboard from a CSV file",
	Example: `  iaqdash render office.csv --format pretty
  iaqdash render office.csv --status On,Auto --start 2024-03-01 --end 2024-03-07
  iaqdash render office.csv --chart occupancy_vs_co2 --format csv --out trend.csv
  iaqdash render office.csv --format csv   # tables, ready for Sheets`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderFilters filterFlags
	renderFormat  string
	renderOut     string
	renderChart   string
	renderTable   string
	renderBins    int
)

func init() {
	renderFilters.register(renderCmd)
	renderCmd.Flags().StringVar(&renderFormat, "format", "json", "output format: json, pretty, text or csv")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "write output to this file instead of stdout")
	renderCmd.Flags().StringVar(&renderChart, "chart", "", "output only this chart (see iaqdash charts)")
	renderCmd.Flags().StringVar(&renderTable, "table", "", "output only this table (status_summary or describe)")
	renderCmd.Flags().IntVar(&renderBins, "bins", 0, "histogram bins (default from the profile)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := checkFormat(renderFormat, "json", "pretty", "text", "csv"); err != nil {
		return err
	}
	filters, err := renderFilters.filters(cmd)
	if err != nil {
		return err
	}
	if renderBins < 0 || renderBins > engine.MaxHistogramBins {
		return fmt.Errorf("--bins must be between 1 and %d, got %d", engine.MaxHistogramBins, renderBins)
	}
	bins := profile.HistogramBins
	if renderBins > 0 {
		bins = renderBins
	}

	ds, err := helpers.LoadFile(args[0], profile)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "file", ds.Name, "rows", ds.Len(), "statuses", ds.Statuses)

	dash := engine.Render(ds, filters,
		engine.WithLogger(logger),
		engine.WithHistogramBins(bins),
		engine.WithUnits(profile.Units))

	return withOutput(cmd.OutOrStdout(), renderOut, func(w io.Writer) error {
		return writeDashboard(w, dash, renderChart, renderTable, renderFormat)
	})
}

// writeDashboard writes the whole dashboard or the one chart or table asked
// for.
func writeDashboard(w io.Writer, dash *engine.Dashboard, chartID, tableID, format string) error {
	switch {
	case chartID != "":
		chart, err := findChart(dash, chartID)
		if err != nil {
			return err
		}
		switch format {
		case "csv":
			cw := csv.NewWriter(w)
			writeChartCSV(cw, chart)
			cw.Flush()
			return cw.Error()
		case "text":
			return writeChartText(w, chart)
		}
		return writeJSON(w, chart, format)

	case tableID != "":
		table, err := findTable(dash, tableID)
		if err != nil {
			return err
		}
		switch format {
		case "csv":
			cw := csv.NewWriter(w)
			writeTableCSV(cw, table)
			cw.Flush()
			return cw.Error()
		case "text":
			return writeTableText(w, table)
		}
		return writeJSON(w, table, format)
	}

	switch format {
	case "csv":
		return writeTablesCSV(w, dash.Tables)
	case "text":
		return writeDashboardText(w, dash)
	}
	return writeJSON(w, dash, format)
}

func findChart(dash *engine.Dashboard, id string) (*engine.ChartConfig, error) {
	for i := range dash.Charts {
		if dash.Charts[i].ID == id {
			return &dash.Charts[i], nil
		}
	}
	for _, e := range dash.Errors {
		if e.Chart == id {
			return nil, fmt.Errorf("chart %s could not be built: %s", id, e.Message)
		}
	}
	return nil, fmt.Errorf("unknown chart %q, expected one of %v", id, engine.ChartIDs())
}

func findTable(dash *engine.Dashboard, id string) (*engine.TableData, error) {
	for i := range dash.Tables {
		if dash.Tables[i].ID == id {
			return &dash.Tables[i], nil
		}
	}
	for _, e := range dash.Errors {
		if e.Chart == id {
			return nil, fmt.Errorf("table %s could not be built: %s", id, e.Message)
		}
	}
	return nil, fmt.Errorf("unknown table %q, expected one of %v", id, engine.TableIDs())
}
