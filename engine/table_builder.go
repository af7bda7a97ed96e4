package engine

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/series"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// TABLE BUILDER — Summary tables shown under the charts
// ============================================================================

// Table ids, in dashboard order.
const (
	TableStatusMeans = "status_summary"
	TableDescribe    = "describe"
)

type tableBuilder struct {
	ID    string
	Title string
	Build func(ds *Dataset, cfg *config) (*TableData, error)
}

var tableCatalog = []tableBuilder{
	{TableStatusMeans, "Average Conditions by Ventilation Status", buildStatusMeansTable},
	{TableDescribe, "Descriptive Statistics", buildDescribeTable},
}

// TableIDs lists the table ids in dashboard order.
func TableIDs() []string {
	ids := make([]string, len(tableCatalog))
	for i, b := range tableCatalog {
		ids[i] = b.ID
	}
	return ids
}

// BuildTables builds every summary table; failures are isolated per table.
func BuildTables(ds *Dataset, opts ...Option) ([]TableData, []ChartError) {
	return buildTables(ds, applyOptions(opts))
}

func buildTables(ds *Dataset, cfg *config) ([]TableData, []ChartError) {
	tables := make([]TableData, 0, len(tableCatalog))
	var errs []ChartError
	for _, b := range tableCatalog {
		t, err := buildTableIsolated(b, ds, cfg)
		if err != nil {
			cfg.Logger.Warn("table skipped", "table", b.ID, "error", err)
			errs = append(errs, ChartError{Chart: b.ID, Message: err.Error()})
			continue
		}
		tables = append(tables, *t)
	}
	return tables, errs
}

func buildTableIsolated(b tableBuilder, ds *Dataset, cfg *config) (t *TableData, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = &AggregationError{Chart: b.ID, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	t, err = b.Build(ds, cfg)
	if err != nil {
		return nil, tagChart(err, b.ID)
	}
	t.ID = b.ID
	t.Title = b.Title
	return t, nil
}

func emptyTable() *TableData {
	return &TableData{Columns: []Column{}, Rows: [][]string{}}
}

// ============================================================================
// STATUS MEANS TABLE
// ============================================================================

func buildStatusMeansTable(ds *Dataset, cfg *config) (*TableData, error) {
	means, err := MeanByStatus(ds)
	if err != nil {
		return nil, err
	}
	if len(means) == 0 {
		return emptyTable(), nil
	}

	columns := []Column{
		{Key: string(schema.VentilationStatus), Label: schema.DisplayName(schema.VentilationStatus), Type: "text", Align: "left"},
	}
	for _, c := range DefaultMeanColumns {
		columns = append(columns, Column{Key: string(c), Label: cfg.label(c), Type: "number", Align: "right"})
	}
	columns = append(columns, Column{Key: "count", Label: "Readings", Type: "number", Align: "center"})

	rows := make([][]string, 0, len(means))
	var totalCount int
	for _, m := range means {
		row := []string{m.Status}
		for _, c := range DefaultMeanColumns {
			row = append(row, FormatNumber(float64(m.Means[c])))
		}
		row = append(row, fmt.Sprintf("%d", m.Count))
		rows = append(rows, row)
		totalCount += m.Count
	}

	summary := &Summary{Label: "All statuses", Values: map[string]string{"count": fmt.Sprintf("%d", totalCount)}}
	for _, c := range DefaultMeanColumns {
		summary.Values[string(c)] = FormatNumber(RoundTo2(AvgMeasure(ReadingView(ds.Readings), string(c))))
	}

	return &TableData{Columns: columns, Rows: rows, Summary: summary}, nil
}

// ============================================================================
// DESCRIBE TABLE — count, mean, std, min, quartiles, max per column
// ============================================================================

var describeStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

func buildDescribeTable(ds *Dataset, cfg *config) (*TableData, error) {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return nil, &AggregationError{Reason: "no numeric columns"}
	}

	columns := []Column{{Key: "statistic", Label: "Statistic", Type: "text", Align: "left"}}
	described := make([]map[string]float64, len(cols))
	for i, c := range cols {
		columns = append(columns, Column{Key: string(c), Label: cfg.label(c), Type: "number", Align: "right"})
		described[i] = Describe(ColumnValues(ds.Readings, c))
	}

	rows := make([][]string, 0, len(describeStats))
	for _, name := range describeStats {
		row := []string{name}
		for i := range cols {
			if name == "count" {
				row = append(row, fmt.Sprintf("%d", int(described[i][name])))
				continue
			}
			row = append(row, FormatNumber(RoundTo2(described[i][name])))
		}
		rows = append(rows, row)
	}
	return &TableData{Columns: columns, Rows: rows}, nil
}

// Describe computes summary statistics of values. Standard deviation is the
// sample one; statistics of an empty slice are NaN with count 0.
func Describe(vals []float64) map[string]float64 {
	out := map[string]float64{"count": float64(len(vals))}
	if len(vals) == 0 {
		for _, name := range describeStats[1:] {
			out[name] = math.NaN()
		}
		return out
	}

	s := series.New(vals, series.Float, "values")
	out["mean"] = s.Mean()
	out["std"] = s.StdDev()
	out["min"] = s.Min()
	out["25%"] = s.Quantile(0.25)
	out["50%"] = s.Median()
	out["75%"] = s.Quantile(0.75)
	out["max"] = s.Max()
	if len(vals) < 2 {
		out["std"] = math.NaN()
	}
	return out
}

// FormatNumber formats a value with 2 decimals; missing values become "—".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "—"
	}
	return fmt.Sprintf("%.2f", v)
}
