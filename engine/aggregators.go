package engine

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, Correlation and Trend
// ============================================================================
// Grouping works on RecordView and produces SubViews (index lists into the
// parent). Numeric work is delegated to gonum. Missing (NaN) cells are
// skipped everywhere.
// ============================================================================

// DefaultMeanColumns are averaged per ventilation status.
var DefaultMeanColumns = []schema.Column{schema.Temperature, schema.Humidity, schema.CO2}

// GroupAndAggregate is the grouping pipeline: group → aggregate → sort.
// Readings with an empty dimension value are left out.
func GroupAndAggregate(view RecordView, dimension, measure, aggregation, sortBy string) []Group {
	if view.Len() == 0 {
		return nil
	}

	groups := groupBySingle(view, dimension)
	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
	}
	SortGroups(groups, sortBy)
	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if key == "" {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "count":
		group.Value = float64(group.Count)
	case "avg":
		group.Value = AvgMeasure(group.View, measure)
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	default:
		group.Value = SumMeasure(group.View, measure)
	}
}

// MeasureValues returns the non-missing values of a measure.
func MeasureValues(view RecordView, measure string) []float64 {
	out := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if v := view.Measure(i, measure); !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	return floats.Sum(MeasureValues(view, measure))
}

// AvgMeasure computes the mean of a measure; NaN when no values exist.
func AvgMeasure(view RecordView, measure string) float64 {
	vals := MeasureValues(view, measure)
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// MaxMeasure returns the largest value of a measure; NaN when none exist.
func MaxMeasure(view RecordView, measure string) float64 {
	vals := MeasureValues(view, measure)
	if len(vals) == 0 {
		return math.NaN()
	}
	return floats.Max(vals)
}

// MinMeasure returns the smallest value of a measure; NaN when none exist.
func MinMeasure(view RecordView, measure string) float64 {
	vals := MeasureValues(view, measure)
	if len(vals) == 0 {
		return math.NaN()
	}
	return floats.Min(vals)
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// Unknown modes preserve first-seen order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "label_asc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key) })
	case "label_desc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) > strings.ToLower(groups[j].Key) })
	}
}

// ============================================================================
// DASHBOARD AGGREGATES
// ============================================================================

// MeanByStatus averages columns per ventilation status, rounded to 2 decimals.
// Statuses are sorted by label. An empty dataset yields an empty result.
func MeanByStatus(ds *Dataset, columns ...schema.Column) ([]StatusMean, error) {
	if len(columns) == 0 {
		columns = DefaultMeanColumns
	}
	if err := requireColumns(ds, append([]schema.Column{schema.VentilationStatus}, columns...)...); err != nil {
		return nil, err
	}

	groups := GroupAndAggregate(ReadingView(ds.Readings), DimStatus, "", "count", "label_asc")
	out := make([]StatusMean, 0, len(groups))
	for _, g := range groups {
		sm := StatusMean{
			Status: g.Label,
			Count:  g.Count,
			Means:  make(map[schema.Column]Number, len(columns)),
		}
		for _, c := range columns {
			sm.Means[c] = Number(RoundTo2(AvgMeasure(g.View, string(c))))
		}
		out = append(out, sm)
	}
	return out, nil
}

// MotionByHour sums motion flags per hour of day, ascending by hour.
// Readings without a timestamp are not counted.
func MotionByHour(ds *Dataset) ([]Group, error) {
	if err := requireColumns(ds, schema.Timestamp, schema.Motion); err != nil {
		return nil, err
	}
	return GroupAndAggregate(ReadingView(ds.Readings), DimHour, string(schema.Motion), "sum", "label_asc"), nil
}

// StatusCounts counts readings per ventilation status, first-seen order.
func StatusCounts(ds *Dataset) ([]Group, error) {
	if err := requireColumns(ds, schema.VentilationStatus); err != nil {
		return nil, err
	}
	return GroupAndAggregate(ReadingView(ds.Readings), DimStatus, "", "count", ""), nil
}

// Correlation computes the Pearson matrix over columns (all numeric columns
// present when none are given), using pairwise complete readings. A cell is
// NaN when either column has zero variance or fewer than two paired values.
func Correlation(ds *Dataset, columns ...schema.Column) (*CorrelationMatrix, error) {
	if len(columns) == 0 {
		columns = ds.NumericColumns()
	}
	if err := requireColumns(ds, columns...); err != nil {
		return nil, err
	}

	n := len(columns)
	m := &CorrelationMatrix{Columns: columns, Values: make([][]Number, n)}
	for i := range m.Values {
		m.Values[i] = make([]Number, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := pearson(ds.Readings, columns[i], columns[j])
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m, nil
}

func pearson(readings []Reading, a, b schema.Column) Number {
	xs, ys := pairedValues(readings, a, b)
	if len(xs) < 2 || isConstant(xs) || isConstant(ys) {
		return NaN()
	}
	if a == b {
		return 1
	}
	r := stat.Correlation(xs, ys, nil)
	return Number(math.Max(-1, math.Min(1, r)))
}

// TrendLine fits y = a + b·x by ordinary least squares.
// ok is false with fewer than two points or zero variance in x.
func TrendLine(xs, ys []float64) (*Trend, bool) {
	if len(xs) < 2 || len(xs) != len(ys) || isConstant(xs) {
		return nil, false
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return &Trend{Slope: beta, Intercept: alpha, Points: len(xs)}, true
}

// OccupancyCO2Trend fits CO2 against occupancy count.
// A nil trend with nil error means the fit is undefined for this data.
func OccupancyCO2Trend(ds *Dataset) (*Trend, error) {
	if err := requireColumns(ds, schema.Occupancy, schema.CO2); err != nil {
		return nil, err
	}
	xs, ys := pairedValues(ds.Readings, schema.Occupancy, schema.CO2)
	trend, ok := TrendLine(xs, ys)
	if !ok {
		return nil, nil
	}
	return trend, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// ColumnValues returns the non-missing values of a column.
func ColumnValues(readings []Reading, c schema.Column) []float64 {
	out := make([]float64, 0, len(readings))
	for _, r := range readings {
		if v, ok := r.Value(c); ok {
			out = append(out, v)
		}
	}
	return out
}

func pairedValues(readings []Reading, a, b schema.Column) ([]float64, []float64) {
	xs := make([]float64, 0, len(readings))
	ys := make([]float64, 0, len(readings))
	for _, r := range readings {
		x, okX := r.Value(a)
		y, okY := r.Value(b)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func isConstant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
