package engine

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// ENGINE TYPES — Readings in, render-ready descriptors out
// ============================================================================
// Reading is a typed row. Column presence is decided once at load time
// (Dataset.Columns); individual cells that were empty or unparseable are NaN
// and every aggregate skips them.
// ============================================================================

// ============================================================================
// READING
// ============================================================================

// Reading is one timestamped row of sensor measurements.
type Reading struct {
	Timestamp         *time.Time // nil when the source value did not parse
	Temperature       float64    // °C
	Humidity          float64    // %
	CO2               float64    // ppm
	PM25              float64    // µg/m³ unless the profile says otherwise
	PM10              float64
	TVOC              float64 // ppb
	CO                float64 // ppm
	Light             float64 // lux
	Motion            float64 // 0 or 1
	Occupancy         float64 // whole number ≥ 0
	VentilationStatus string
}

// Missing is the value stored for absent numeric cells.
var Missing = math.NaN()

// NewReading returns a Reading with every numeric field missing.
func NewReading() Reading {
	return Reading{
		Temperature: Missing, Humidity: Missing, CO2: Missing,
		PM25: Missing, PM10: Missing, TVOC: Missing, CO: Missing,
		Light: Missing, Motion: Missing, Occupancy: Missing,
	}
}

// Value returns a numeric column and whether it holds a value.
func (r Reading) Value(c schema.Column) (float64, bool) {
	var v float64
	switch c {
	case schema.Temperature:
		v = r.Temperature
	case schema.Humidity:
		v = r.Humidity
	case schema.CO2:
		v = r.CO2
	case schema.PM25:
		v = r.PM25
	case schema.PM10:
		v = r.PM10
	case schema.TVOC:
		v = r.TVOC
	case schema.CO:
		v = r.CO
	case schema.Light:
		v = r.Light
	case schema.Motion:
		v = r.Motion
	case schema.Occupancy:
		v = r.Occupancy
	default:
		return Missing, false
	}
	return v, !math.IsNaN(v)
}

// Set stores a numeric column value. Unknown columns are ignored.
func (r *Reading) Set(c schema.Column, v float64) {
	switch c {
	case schema.Temperature:
		r.Temperature = v
	case schema.Humidity:
		r.Humidity = v
	case schema.CO2:
		r.CO2 = v
	case schema.PM25:
		r.PM25 = v
	case schema.PM10:
		r.PM10 = v
	case schema.TVOC:
		r.TVOC = v
	case schema.CO:
		r.CO = v
	case schema.Light:
		r.Light = v
	case schema.Motion:
		r.Motion = v
	case schema.Occupancy:
		r.Occupancy = v
	}
}

// Hour returns the hour of day derived from the timestamp.
func (r Reading) Hour() (int, bool) {
	if r.Timestamp == nil {
		return 0, false
	}
	return r.Timestamp.Hour(), true
}

// OccupancyCount returns the occupancy as an integer.
func (r Reading) OccupancyCount() (int, bool) {
	if math.IsNaN(r.Occupancy) {
		return 0, false
	}
	return int(r.Occupancy), true
}

// ============================================================================
// DATASET
// ============================================================================

// Dataset is the immutable result of one load.
type Dataset struct {
	Name            string
	Headers         []string // trimmed, original order
	Columns         map[schema.Column]bool
	Readings        []Reading
	Statuses        []string // distinct non-empty ventilation statuses, first-seen order
	TimestampLayout string   // layout used for the timestamp column, "" when none detected
	TimestampNulls  int
	Units           map[schema.Column]string
}

// Has reports whether the source carried a column.
func (d *Dataset) Has(c schema.Column) bool {
	return d != nil && d.Columns[c]
}

// Len returns the number of readings.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Readings)
}

// NumericColumns returns the numeric columns present, in canonical order.
func (d *Dataset) NumericColumns() []schema.Column {
	var out []schema.Column
	for _, c := range schema.NumericColumns() {
		if d.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Filter returns a dataset holding only the readings that pass f.
// Headers, columns and units are shared with the receiver.
func (d *Dataset) Filter(f Filters) *Dataset {
	readings := FilterReadings(d.Readings, f)
	out := *d
	out.Readings = readings
	out.Statuses = ObservedStatuses(readings)
	out.TimestampNulls = 0
	for _, r := range readings {
		if r.Timestamp == nil {
			out.TimestampNulls++
		}
	}
	return &out
}

// ObservedStatuses returns distinct non-empty statuses in first-seen order.
func ObservedStatuses(readings []Reading) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range readings {
		s := r.VentilationStatus
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ============================================================================
// FILTERS
// ============================================================================

// Filters select which readings take part in a render pass.
//
// Statuses == nil means no status restriction; a non-nil empty slice selects
// nothing. Start and End bound the timestamp inclusively.
type Filters struct {
	Statuses []string   `json:"statuses"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}

// AllStatuses returns filters that keep every reading.
func AllStatuses() Filters {
	return Filters{}
}

// SelectStatuses returns filters keeping only the given statuses.
func SelectStatuses(statuses ...string) Filters {
	if statuses == nil {
		statuses = []string{}
	}
	return Filters{Statuses: statuses}
}

// HasDateRange reports whether a date bound is set.
func (f Filters) HasDateRange() bool {
	return f.Start != nil || f.End != nil
}

// IsEmpty reports whether the filters restrict nothing.
func (f Filters) IsEmpty() bool {
	return f.Statuses == nil && !f.HasDateRange()
}

// ============================================================================
// NUMBER — JSON-safe float
// ============================================================================

// Number is a float64 that marshals NaN and ±Inf as JSON null.
type Number float64

// NaN is the undefined Number.
func NaN() Number { return Number(math.NaN()) }

// IsNaN reports whether the number is undefined.
func (n Number) IsNaN() bool {
	return math.IsNaN(float64(n)) || math.IsInf(float64(n), 0)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.IsNaN() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(n), 'f', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = NaN()
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
type Group struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // sub-view for readings in this group
}

// StatusMean holds the rounded means of one ventilation status.
type StatusMean struct {
	Status string                   `json:"status"`
	Count  int                      `json:"count"`
	Means  map[schema.Column]Number `json:"means"`
}

// Trend is an ordinary least squares fit y = Intercept + Slope·x.
type Trend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Points    int     `json:"points"`
}

// At evaluates the fitted line.
func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// CorrelationMatrix is a symmetric Pearson matrix; undefined cells are NaN.
type CorrelationMatrix struct {
	Columns []schema.Column `json:"columns"`
	Values  [][]Number      `json:"values"`
}

// At returns the coefficient between two columns.
func (m *CorrelationMatrix) At(a, b schema.Column) (Number, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return NaN(), false
	}
	return m.Values[i][j], true
}

// ============================================================================
// CHART TYPES
// ============================================================================

// Chart types understood by the rendering surface.
const (
	ChartLine      = "line"
	ChartBox       = "box"
	ChartScatter   = "scatter"
	ChartHistogram = "histogram"
	ChartPie       = "pie"
	ChartBar       = "bar"
	ChartHeatmap   = "heatmap"
)

// ChartConfig is a declarative chart descriptor.
type ChartConfig struct {
	ID         string        `json:"id"`
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	ColorBy    string        `json:"colorBy,omitempty"`
	Series     []ChartSeries `json:"series"`
	Heatmap    *HeatmapData  `json:"heatmap,omitempty"`
	BinSize    float64       `json:"binSize,omitempty"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
	NoData     bool          `json:"noData"`
	Message    string        `json:"message,omitempty"`
}

// ChartSeries is one trace. Categorical or time x values go in Labels,
// numeric x values in X.
type ChartSeries struct {
	Name   string    `json:"name"`
	Group  string    `json:"group,omitempty"` // color grouping value
	Mode   string    `json:"mode,omitempty"`  // "lines", "markers", "trend"
	Labels []string  `json:"labels,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []Number  `json:"y"` // may hold NaN (mean of a status without values)
	Box    *BoxStats `json:"box,omitempty"`
	Trend  *Trend    `json:"trend,omitempty"`
	Color  string    `json:"color,omitempty"`
}

// BoxStats summarizes one box of a box plot.
type BoxStats struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// HeatmapData is a labelled square matrix.
type HeatmapData struct {
	Labels []string   `json:"labels"`
	Values [][]Number `json:"values"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// DASHBOARD
// ============================================================================

// Metrics are the scalar figures shown above the charts.
type Metrics struct {
	TotalRows       int        `json:"totalRows"`
	Rows            int        `json:"rows"`
	Start           *time.Time `json:"start,omitempty"`
	End             *time.Time `json:"end,omitempty"`
	Period          string     `json:"period"`
	MeanTemperature Number     `json:"meanTemperature"`
	MeanHumidity    Number     `json:"meanHumidity"`
	TimestampNulls  int        `json:"timestampNulls"`
	Statuses        []string   `json:"statuses"`
	Reply           string     `json:"reply"`
}

// ChartError records one chart or table that could not be built.
type ChartError struct {
	Chart   string `json:"chart"`
	Message string `json:"message"`
}

// Dashboard is the output of one render pass.
type Dashboard struct {
	Metrics Metrics       `json:"metrics"`
	Filters Filters       `json:"filters"`
	Charts  []ChartConfig `json:"charts"`
	Tables  []TableData   `json:"tables"`
	Errors  []ChartError  `json:"errors,omitempty"`
}
