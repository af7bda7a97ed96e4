package engine

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig descriptors from a Dataset
// ============================================================================
// Every chart of the dashboard is one entry in chartCatalog. Builders are
// pure: they read the dataset and the config and return a descriptor or an
// error. Rendering happens elsewhere.
// ============================================================================

// Chart ids, in dashboard order.
const (
	ChartCO2OverTime        = "co2_over_time"
	ChartPM25ByStatus       = "pm25_by_status"
	ChartOccupancyVsCO2     = "occupancy_vs_co2"
	ChartTempDistribution   = "temperature_distribution"
	ChartHumidDistribution  = "humidity_distribution"
	ChartStatusShare        = "status_share"
	ChartStatusMeans        = "status_means"
	ChartMotionByHour       = "motion_by_hour"
	ChartCorrelationHeatmap = "correlation"
)

// NoDataMessage is shown on placeholders when filters leave nothing.
const NoDataMessage = "No data matches the selected filters."

type chartBuilder struct {
	ID        string
	ChartType string
	Title     string
	Build     func(ds *Dataset, cfg *config) (*ChartConfig, error)
}

var chartCatalog = []chartBuilder{
	{ChartCO2OverTime, ChartLine, "CO₂ Levels Over Time", buildCO2OverTime},
	{ChartPM25ByStatus, ChartBox, "PM2.5 by Ventilation Status", buildPM25ByStatus},
	{ChartOccupancyVsCO2, ChartScatter, "Occupancy vs CO₂", buildOccupancyVsCO2},
	{ChartTempDistribution, ChartHistogram, "Temperature Distribution", histogramOf(schema.Temperature)},
	{ChartHumidDistribution, ChartHistogram, "Humidity Distribution", histogramOf(schema.Humidity)},
	{ChartStatusShare, ChartPie, "Ventilation Status Share", buildStatusShare},
	{ChartStatusMeans, ChartBar, "Average Conditions by Ventilation Status", buildStatusMeans},
	{ChartMotionByHour, ChartBar, "Motion Detected by Hour of Day", buildMotionByHour},
	{ChartCorrelationHeatmap, ChartHeatmap, "Sensor Correlation Matrix", buildCorrelation},
}

// ChartIDs lists every chart id in dashboard order.
func ChartIDs() []string {
	ids := make([]string, len(chartCatalog))
	for i, b := range chartCatalog {
		ids[i] = b.ID
	}
	return ids
}

// BuildChart builds a single chart by id.
func BuildChart(id string, ds *Dataset, opts ...Option) (*ChartConfig, error) {
	cfg := applyOptions(opts)
	if cfg.StatusOrder == nil {
		cfg.StatusOrder = ds.Statuses
	}
	for _, b := range chartCatalog {
		if b.ID == id {
			return buildIsolated(b, ds, cfg)
		}
	}
	return nil, fmt.Errorf("unknown chart %q", id)
}

// BuildCharts builds every chart of the catalog. A chart that fails is left
// out and reported in the returned errors; the others are still built.
func BuildCharts(ds *Dataset, opts ...Option) ([]ChartConfig, []ChartError) {
	cfg := applyOptions(opts)
	if cfg.StatusOrder == nil {
		cfg.StatusOrder = ds.Statuses
	}
	return buildCharts(ds, cfg)
}

func buildCharts(ds *Dataset, cfg *config) ([]ChartConfig, []ChartError) {
	charts := make([]ChartConfig, 0, len(chartCatalog))
	var errs []ChartError
	for _, b := range chartCatalog {
		chart, err := buildIsolated(b, ds, cfg)
		if err != nil {
			cfg.Logger.Warn("chart skipped", "chart", b.ID, "error", err)
			errs = append(errs, ChartError{Chart: b.ID, Message: err.Error()})
			continue
		}
		charts = append(charts, *chart)
	}
	return charts, errs
}

// buildIsolated runs one builder, turning panics into an AggregationError.
func buildIsolated(b chartBuilder, ds *Dataset, cfg *config) (chart *ChartConfig, err error) {
	defer func() {
		if r := recover(); r != nil {
			chart = nil
			err = &AggregationError{Chart: b.ID, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	if ds.Len() == 0 {
		return placeholder(b, NoDataMessage), nil
	}
	chart, err = b.Build(ds, cfg)
	if err != nil {
		return nil, tagChart(err, b.ID)
	}
	chart.ID = b.ID
	chart.ChartType = b.ChartType
	chart.Title = b.Title
	if chart.Series == nil {
		chart.Series = []ChartSeries{}
	}
	return chart, nil
}

func placeholder(b chartBuilder, message string) *ChartConfig {
	return &ChartConfig{
		ID:        b.ID,
		ChartType: b.ChartType,
		Title:     b.Title,
		Series:    []ChartSeries{},
		NoData:    true,
		Message:   message,
	}
}

func noData(message string) *ChartConfig {
	return &ChartConfig{NoData: true, Message: message}
}

func tagChart(err error, id string) error {
	if ae, ok := err.(*AggregationError); ok && ae.Chart == "" {
		tagged := *ae
		tagged.Chart = id
		return &tagged
	}
	return err
}

// ============================================================================
// LINE — CO2 over time
// ============================================================================

func buildCO2OverTime(ds *Dataset, cfg *config) (*ChartConfig, error) {
	if err := requireColumns(ds, schema.Timestamp, schema.CO2, schema.VentilationStatus); err != nil {
		return nil, err
	}

	idx := make([]int, 0, ds.Len())
	for i, r := range ds.Readings {
		if _, ok := r.Value(schema.CO2); ok && r.Timestamp != nil {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return noData("No CO₂ readings with a valid timestamp."), nil
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ds.Readings[idx[a]].Timestamp.Before(*ds.Readings[idx[b]].Timestamp)
	})

	series := statusSeries(ds.Statuses, cfg)
	for _, i := range idx {
		r := ds.Readings[i]
		s, ok := series.get(r.VentilationStatus)
		if !ok {
			continue
		}
		s.Labels = append(s.Labels, r.Timestamp.Format("2006-01-02T15:04:05"))
		s.Y = append(s.Y, Number(r.CO2))
	}

	return &ChartConfig{
		XAxis:      schema.DisplayName(schema.Timestamp),
		YAxis:      cfg.label(schema.CO2),
		ColorBy:    string(schema.VentilationStatus),
		Series:     series.nonEmpty("lines"),
		ShowLegend: true,
		ShowGrid:   true,
	}, nil
}

// ============================================================================
// BOX — PM2.5 by status
// ============================================================================

func buildPM25ByStatus(ds *Dataset, cfg *config) (*ChartConfig, error) {
	if err := requireColumns(ds, schema.PM25, schema.VentilationStatus); err != nil {
		return nil, err
	}

	series := statusSeries(ds.Statuses, cfg)
	for _, r := range ds.Readings {
		v, ok := r.Value(schema.PM25)
		if !ok {
			continue
		}
		if s, ok := series.get(r.VentilationStatus); ok {
			s.Y = append(s.Y, Number(v))
		}
	}

	out := series.nonEmpty("")
	if len(out) == 0 {
		return noData("No PM2.5 readings."), nil
	}
	for i := range out {
		out[i].Box = boxStats(out[i].Y)
	}

	return &ChartConfig{
		XAxis:      schema.DisplayName(schema.VentilationStatus),
		YAxis:      cfg.label(schema.PM25),
		ColorBy:    string(schema.VentilationStatus),
		Series:     out,
		ShowLegend: true,
		ShowGrid:   true,
	}, nil
}

// boxStats summarizes values with linearly interpolated quartiles.
func boxStats(ys []Number) *BoxStats {
	vals := make([]float64, len(ys))
	for i, y := range ys {
		vals[i] = float64(y)
	}
	sort.Float64s(vals)
	return &BoxStats{
		Min:    vals[0],
		Q1:     stat.Quantile(0.25, stat.LinInterp, vals, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, vals, nil),
		Q3:     stat.Quantile(0.75, stat.LinInterp, vals, nil),
		Max:    vals[len(vals)-1],
		Mean:   stat.Mean(vals, nil),
	}
}

// ============================================================================
// SCATTER — Occupancy vs CO2 with trend lines
// ============================================================================

func buildOccupancyVsCO2(ds *Dataset, cfg *config) (*ChartConfig, error) {
	if err := requireColumns(ds, schema.Occupancy, schema.CO2, schema.VentilationStatus); err != nil {
		return nil, err
	}

	series := statusSeries(ds.Statuses, cfg)
	for _, r := range ds.Readings {
		x, okX := r.Value(schema.Occupancy)
		y, okY := r.Value(schema.CO2)
		if !okX || !okY {
			continue
		}
		if s, ok := series.get(r.VentilationStatus); ok {
			s.X = append(s.X, x)
			s.Y = append(s.Y, Number(y))
		}
	}

	out := series.nonEmpty("markers")
	if len(out) == 0 {
		return noData("No readings with both occupancy and CO₂."), nil
	}
	for i := range out {
		if t, ok := TrendLine(out[i].X, floatsOf(out[i].Y)); ok {
			out[i].Trend = t
		}
	}

	overall, err := OccupancyCO2Trend(ds)
	if err != nil {
		return nil, err
	}
	if overall != nil {
		var xs []float64
		for _, s := range out {
			xs = append(xs, s.X...)
		}
		lo, hi := floats.Min(xs), floats.Max(xs)
		out = append(out, ChartSeries{
			Name:  "Overall trend",
			Mode:  "trend",
			X:     []float64{lo, hi},
			Y:     []Number{Number(overall.At(lo)), Number(overall.At(hi))},
			Trend: overall,
			Color: "#111827",
		})
	}

	return &ChartConfig{
		XAxis:      cfg.label(schema.Occupancy),
		YAxis:      cfg.label(schema.CO2),
		ColorBy:    string(schema.VentilationStatus),
		Series:     out,
		ShowLegend: true,
		ShowGrid:   true,
	}, nil
}

// ============================================================================
// HISTOGRAM
// ============================================================================

func histogramOf(col schema.Column) func(*Dataset, *config) (*ChartConfig, error) {
	return func(ds *Dataset, cfg *config) (*ChartConfig, error) {
		if err := requireColumns(ds, col); err != nil {
			return nil, err
		}
		vals := ColumnValues(ds.Readings, col)
		if len(vals) == 0 {
			return noData(fmt.Sprintf("No %s readings.", schema.DisplayName(col))), nil
		}

		centers, counts, width := Histogram(vals, cfg.HistogramBins)
		return &ChartConfig{
			XAxis:    cfg.label(col),
			YAxis:    "Count",
			BinSize:  width,
			Series:   []ChartSeries{{Name: schema.DisplayName(col), X: centers, Y: numbers(counts), Color: cfg.Palette[0]}},
			ShowGrid: true,
		}, nil
	}
}

// Histogram splits values into equal-width bins between min and max and
// returns bin centers, counts and the bin width. Identical values produce a
// single bin of width 1. bins is capped at MaxHistogramBins.
func Histogram(vals []float64, bins int) (centers, counts []float64, width float64) {
	if len(vals) == 0 {
		return nil, nil, 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi || bins < 1 {
		return []float64{lo}, []float64{float64(len(sorted))}, 1
	}
	bins = min(bins, MaxHistogramBins)

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram bins are half-open; widen the last edge so max is counted.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts = stat.Histogram(nil, dividers, sorted, nil)
	width = (hi - lo) / float64(bins)
	centers = make([]float64, bins)
	for i := range centers {
		centers[i] = lo + width*(float64(i)+0.5)
	}
	return centers, counts, width
}

// ============================================================================
// PIE — status share
// ============================================================================

func buildStatusShare(ds *Dataset, cfg *config) (*ChartConfig, error) {
	groups, err := StatusCounts(ds)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return noData("No ventilation status values."), nil
	}

	s := ChartSeries{Name: schema.DisplayName(schema.VentilationStatus)}
	colors := make([]string, 0, len(groups))
	for i, g := range groups {
		s.Labels = append(s.Labels, g.Label)
		s.Y = append(s.Y, Number(g.Count))
		colors = append(colors, cfg.colorFor(g.Key, i))
	}

	return &ChartConfig{
		ColorBy:    string(schema.VentilationStatus),
		Series:     []ChartSeries{s},
		Colors:     colors,
		ShowLegend: true,
	}, nil
}

// ============================================================================
// BAR — means by status, motion by hour
// ============================================================================

func buildStatusMeans(ds *Dataset, cfg *config) (*ChartConfig, error) {
	means, err := MeanByStatus(ds)
	if err != nil {
		return nil, err
	}
	if len(means) == 0 {
		return noData("No ventilation status values."), nil
	}

	series := make([]ChartSeries, 0, len(DefaultMeanColumns))
	for i, col := range DefaultMeanColumns {
		s := ChartSeries{
			Name:  cfg.label(col),
			Group: string(col),
			Color: cfg.Palette[i%len(cfg.Palette)],
		}
		for _, m := range means {
			s.Labels = append(s.Labels, m.Status)
			s.Y = append(s.Y, m.Means[col])
		}
		series = append(series, s)
	}

	return &ChartConfig{
		XAxis:      schema.DisplayName(schema.VentilationStatus),
		YAxis:      "Average",
		Series:     series,
		ShowLegend: true,
		ShowGrid:   true,
	}, nil
}

func buildMotionByHour(ds *Dataset, cfg *config) (*ChartConfig, error) {
	groups, err := MotionByHour(ds)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return noData("No readings with a valid timestamp."), nil
	}

	s := ChartSeries{Name: schema.DisplayName(schema.Motion), Color: cfg.Palette[0]}
	for _, g := range groups {
		s.Labels = append(s.Labels, g.Label)
		s.Y = append(s.Y, Number(g.Value))
	}

	return &ChartConfig{
		XAxis:    "Hour of Day",
		YAxis:    "Motion Events",
		Series:   []ChartSeries{s},
		ShowGrid: true,
	}, nil
}

// ============================================================================
// HEATMAP — correlation
// ============================================================================

func buildCorrelation(ds *Dataset, cfg *config) (*ChartConfig, error) {
	m, err := Correlation(ds)
	if err != nil {
		return nil, err
	}
	if len(m.Columns) < 2 {
		return noData("At least two numeric columns are needed."), nil
	}

	labels := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		labels[i] = schema.DisplayName(c)
	}
	return &ChartConfig{
		Heatmap:    &HeatmapData{Labels: labels, Values: m.Values},
		ShowLegend: true,
	}, nil
}

// ============================================================================
// SERIES HELPERS
// ============================================================================

// seriesSet keeps one series per status in status order.
type seriesSet struct {
	order []string
	byKey map[string]*ChartSeries
}

func statusSeries(statuses []string, cfg *config) *seriesSet {
	set := &seriesSet{byKey: make(map[string]*ChartSeries, len(statuses))}
	for i, st := range statuses {
		set.order = append(set.order, st)
		set.byKey[st] = &ChartSeries{Name: st, Group: st, Color: cfg.colorFor(st, i)}
	}
	return set
}

func (s *seriesSet) get(status string) (*ChartSeries, bool) {
	cs, ok := s.byKey[status]
	return cs, ok
}

func (s *seriesSet) nonEmpty(mode string) []ChartSeries {
	out := make([]ChartSeries, 0, len(s.order))
	for _, key := range s.order {
		cs := s.byKey[key]
		if len(cs.Y) == 0 {
			continue
		}
		cs.Mode = mode
		out = append(out, *cs)
	}
	return out
}

func numbers(vals []float64) []Number {
	out := make([]Number, len(vals))
	for i, v := range vals {
		out[i] = Number(v)
	}
	return out
}

func floatsOf(vals []Number) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}
