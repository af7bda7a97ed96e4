package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spektr-org/iaqdash/engine"
)

// ============================================================================
// OUTPUT — JSON, Sheets-ready CSV and plain text
// ============================================================================

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q, expected one of %s", format, strings.Join(allowed, ", "))
}

// withOutput runs write against stdout or, when path is set, the named file.
func withOutput(stdout io.Writer, path string, write func(w io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("output written", "file", path)
	}
	return nil
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT
// ============================================================================

func writeChartCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	if chart.NoData {
		cw.Write([]string{"Result", chart.Message})
		return
	}

	switch {
	case chart.Heatmap != nil:
		writeHeatmapCSV(cw, chart.Heatmap)
	case chart.ChartType == engine.ChartBox:
		writeBoxCSV(cw, chart)
	case hasNumericX(chart.Series):
		writePointsCSV(cw, chart)
	default:
		writeCategoryCSV(cw, chart)
	}
}

func writeHeatmapCSV(cw *csv.Writer, h *engine.HeatmapData) {
	cw.Write(append([]string{""}, h.Labels...))
	for i, label := range h.Labels {
		row := []string{label}
		for _, v := range h.Values[i] {
			row = append(row, fmtNum(float64(v)))
		}
		cw.Write(row)
	}
}

func writeBoxCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	cw.Write([]string{axisOr(chart.XAxis, "Group"), "Min", "Q1", "Median", "Q3", "Max", "Mean"})
	for _, s := range chart.Series {
		if s.Box == nil {
			continue
		}
		b := s.Box
		cw.Write([]string{s.Name, fmtNum(b.Min), fmtNum(b.Q1), fmtNum(b.Median), fmtNum(b.Q3), fmtNum(b.Max), fmtNum(b.Mean)})
	}
}

// writePointsCSV writes numeric x/y series in long form, one point per row.
func writePointsCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	cw.Write([]string{"Series", axisOr(chart.XAxis, "X"), axisOr(chart.YAxis, "Y")})
	for _, s := range chart.Series {
		for i, x := range s.X {
			y := ""
			if i < len(s.Y) {
				y = fmtNum(float64(s.Y[i]))
			}
			cw.Write([]string{s.Name, fmtNum(x), y})
		}
	}
}

// writeCategoryCSV writes labelled series side by side: one row per label,
// one column per series.
func writeCategoryCSV(cw *csv.Writer, chart *engine.ChartConfig) {
	xLabel := axisOr(chart.XAxis, "Label")
	if len(chart.Series) == 1 {
		cw.Write([]string{xLabel, axisOr(chart.YAxis, "Value")})
		s := chart.Series[0]
		for i, label := range s.Labels {
			cw.Write([]string{label, valueAt(s.Y, i)})
		}
		return
	}

	headers := []string{xLabel}
	var labels []string
	seen := map[string]bool{}
	index := make([]map[string]int, len(chart.Series))
	for n, s := range chart.Series {
		headers = append(headers, s.Name)
		index[n] = make(map[string]int, len(s.Labels))
		for i, label := range s.Labels {
			index[n][label] = i
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	cw.Write(headers)

	for _, label := range labels {
		row := []string{label}
		for n, s := range chart.Series {
			if i, ok := index[n][label]; ok {
				row = append(row, valueAt(s.Y, i))
			} else {
				row = append(row, "")
			}
		}
		cw.Write(row)
	}
}

func writeTableCSV(cw *csv.Writer, table *engine.TableData) {
	headers := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		headers[i] = c.Label
	}
	cw.Write(headers)
	for _, row := range table.Rows {
		cw.Write(row)
	}
	if table.Summary != nil && len(table.Columns) > 0 {
		row := []string{table.Summary.Label}
		for _, c := range table.Columns[1:] {
			row = append(row, table.Summary.Values[c.Key])
		}
		cw.Write(row)
	}
}

// writeTablesCSV writes each table under its title, separated by a blank
// line.
func writeTablesCSV(w io.Writer, tables []engine.TableData) error {
	cw := csv.NewWriter(w)
	for i := range tables {
		if i > 0 {
			cw.Write(nil)
		}
		cw.Write([]string{tables[i].Title})
		writeTableCSV(cw, &tables[i])
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeDashboardText(w io.Writer, dash *engine.Dashboard) error {
	var b strings.Builder
	b.WriteString(dash.Metrics.Reply)
	b.WriteString("\n")
	for _, c := range dash.Charts {
		status := fmt.Sprintf("%d series", len(c.Series))
		if c.Heatmap != nil {
			status = fmt.Sprintf("%dx%d matrix", len(c.Heatmap.Labels), len(c.Heatmap.Labels))
		}
		if c.NoData {
			status = "no data"
		}
		fmt.Fprintf(&b, "  %-26s %-10s %s\n", c.ID, c.ChartType, status)
	}
	for _, e := range dash.Errors {
		fmt.Fprintf(&b, "  %-26s failed     %s\n", e.Chart, e.Message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeChartText(w io.Writer, chart *engine.ChartConfig) error {
	if chart.NoData {
		_, err := fmt.Fprintf(w, "%s: %s\n", chart.Title, chart.Message)
		return err
	}
	fmt.Fprintf(w, "%s\n", chart.Title)
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	writeChartCSV(cw, chart)
	cw.Flush()
	return cw.Error()
}

func writeTableText(w io.Writer, table *engine.TableData) error {
	fmt.Fprintf(w, "%s\n", table.Title)
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	writeTableCSV(cw, table)
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// HELPERS
// ============================================================================

func fmtNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func valueAt(ys []engine.Number, i int) string {
	if i >= len(ys) {
		return ""
	}
	return fmtNum(float64(ys[i]))
}

func axisOr(axis, fallback string) string {
	if axis == "" {
		return fallback
	}
	return axis
}

func hasNumericX(series []engine.ChartSeries) bool {
	for _, s := range series {
		if len(s.X) > 0 {
			return true
		}
	}
	return false
}
