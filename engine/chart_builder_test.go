package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/iaqdash/schema"
)

func chartByID(t *testing.T, charts []ChartConfig, id string) ChartConfig {
	t.Helper()
	for _, c := range charts {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("chart %q not built", id)
	return ChartConfig{}
}

func TestBuildCharts_FullCatalog(t *testing.T) {
	charts, errs := BuildCharts(sampleDataset())
	require.Empty(t, errs)
	require.Len(t, charts, len(ChartIDs()))

	for i, id := range ChartIDs() {
		assert.Equal(t, id, charts[i].ID)
		assert.False(t, charts[i].NoData, id)
		assert.NotEmpty(t, charts[i].Title, id)
	}
}

func TestBuildCharts_EmptySelectionYieldsPlaceholders(t *testing.T) {
	ds := sampleDataset().Filter(SelectStatuses())

	charts, errs := BuildCharts(ds)
	require.Empty(t, errs)
	require.Len(t, charts, len(ChartIDs()))
	for _, c := range charts {
		assert.True(t, c.NoData, c.ID)
		assert.Equal(t, NoDataMessage, c.Message)
		assert.NotNil(t, c.Series)
	}
}

func TestBuildCharts_MissingColumnIsIsolated(t *testing.T) {
	var cols []schema.Column
	for _, c := range schema.Columns {
		if c.Key != schema.PM25 {
			cols = append(cols, c.Key)
		}
	}
	ds := newDataset(sampleReadings(), cols...)

	charts, errs := BuildCharts(ds)
	require.Len(t, errs, 1)
	assert.Equal(t, ChartPM25ByStatus, errs[0].Chart)
	assert.Contains(t, errs[0].Message, "pm25")
	assert.Len(t, charts, len(ChartIDs())-1)
}

func TestBuildIsolated_RecoversPanic(t *testing.T) {
	b := chartBuilder{
		ID:        "boom",
		ChartType: ChartBar,
		Build: func(*Dataset, *config) (*ChartConfig, error) {
			var m map[string]int
			m["x"]++
			return nil, nil
		},
	}

	chart, err := buildIsolated(b, sampleDataset(), applyOptions(nil))
	assert.Nil(t, chart)

	var aggErr *AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "boom", aggErr.Chart)
	assert.Contains(t, aggErr.Reason, "panic")
}

func TestCO2OverTime_SortedPerStatus(t *testing.T) {
	chart, err := BuildChart(ChartCO2OverTime, sampleDataset())
	require.NoError(t, err)
	require.Len(t, chart.Series, 3)

	off := chart.Series[0]
	assert.Equal(t, "Off", off.Name)
	assert.Equal(t, "lines", off.Mode)
	assert.Equal(t, []string{"2024-03-01T08:00:00", "2024-03-01T08:30:00"}, off.Labels)
	assert.Equal(t, []Number{600, 900}, off.Y)

	// the undated Auto reading is not plotted
	auto := chart.Series[2]
	assert.Len(t, auto.Y, 1)
}

func TestPM25ByStatus_BoxStats(t *testing.T) {
	chart, err := BuildChart(ChartPM25ByStatus, sampleDataset())
	require.NoError(t, err)
	require.Len(t, chart.Series, 3)

	box := chart.Series[0].Box
	require.NotNil(t, box)
	assert.Equal(t, 12.0, box.Min)
	assert.Equal(t, 15.0, box.Max)
	assert.Equal(t, 13.5, box.Mean)
}

func TestOccupancyVsCO2_HasOverallTrend(t *testing.T) {
	chart, err := BuildChart(ChartOccupancyVsCO2, sampleDataset())
	require.NoError(t, err)

	last := chart.Series[len(chart.Series)-1]
	assert.Equal(t, "trend", last.Mode)
	require.NotNil(t, last.Trend)
	assert.Equal(t, 6, last.Trend.Points)
	assert.Equal(t, []float64{1, 6}, last.X)
	for _, s := range chart.Series[:len(chart.Series)-1] {
		assert.Equal(t, "markers", s.Mode)
	}
}

func TestHistogram(t *testing.T) {
	vals := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	centers, counts, width := Histogram(vals, 5)

	require.Len(t, centers, 5)
	assert.Equal(t, 2.0, width)
	assert.Equal(t, 1.0, centers[0])
	assert.Equal(t, []float64{2, 2, 2, 2, 3}, counts)
}

func TestHistogram_ConstantValues(t *testing.T) {
	centers, counts, width := Histogram([]float64{4, 4, 4}, 30)
	assert.Equal(t, []float64{4}, centers)
	assert.Equal(t, []float64{3}, counts)
	assert.Equal(t, 1.0, width)
}

func TestTemperatureDistribution_BinOption(t *testing.T) {
	chart, err := BuildChart(ChartTempDistribution, sampleDataset(), WithHistogramBins(4))
	require.NoError(t, err)
	require.Len(t, chart.Series, 1)
	assert.Len(t, chart.Series[0].X, 4)

	var total Number
	for _, y := range chart.Series[0].Y {
		total += y
	}
	assert.Equal(t, Number(6), total)
	assert.Equal(t, "Temperature (°C)", chart.XAxis)
}

func TestHistogramBinsAreCapped(t *testing.T) {
	cfg := applyOptions([]Option{WithHistogramBins(1 << 30)})
	assert.Equal(t, MaxHistogramBins, cfg.HistogramBins)

	cfg = applyOptions([]Option{WithHistogramBins(-5)})
	assert.Equal(t, DefaultHistogramBins, cfg.HistogramBins)

	centers, counts, _ := Histogram([]float64{1, 2, 3}, 1<<30)
	assert.Len(t, centers, MaxHistogramBins)
	assert.Len(t, counts, MaxHistogramBins)

	charts, errs := BuildCharts(sampleDataset(), WithHistogramBins(1<<30))
	assert.Empty(t, errs)
	for _, c := range charts {
		if c.ID == ChartTempDistribution {
			assert.Len(t, c.Series[0].X, MaxHistogramBins)
		}
	}
}

func TestStatusColorsStableAcrossFilters(t *testing.T) {
	ds := sampleDataset()
	full, err := BuildChart(ChartStatusShare, ds)
	require.NoError(t, err)

	filtered, err := BuildChart(ChartStatusShare, ds.Filter(SelectStatuses("Auto")), WithStatusOrder(ds.Statuses))
	require.NoError(t, err)

	require.Equal(t, []string{"Auto"}, filtered.Series[0].Labels)
	assert.Equal(t, full.Colors[2], filtered.Colors[0])
}

func TestStatusMeansChart(t *testing.T) {
	chart, err := BuildChart(ChartStatusMeans, sampleDataset(), WithUnits(map[schema.Column]string{schema.Temperature: "°F"}))
	require.NoError(t, err)
	require.Len(t, chart.Series, 3)

	temp := chart.Series[0]
	assert.Equal(t, "Temperature (°F)", temp.Name)
	assert.Equal(t, []string{"Auto", "Off", "On"}, temp.Labels)
	assert.Equal(t, []Number{22.75, 21, 22.5}, temp.Y)
}

func TestCorrelationChart_JSONEncodesNaNAsNull(t *testing.T) {
	ds := newDataset([]Reading{
		reading("2024-03-01 08:00", "On", vals{schema.Temperature: 20, schema.Humidity: 40}),
		reading("2024-03-01 09:00", "On", vals{schema.Temperature: 21, schema.Humidity: 40}),
	}, schema.Timestamp, schema.VentilationStatus, schema.Temperature, schema.Humidity)

	chart, err := BuildChart(ChartCorrelationHeatmap, ds)
	require.NoError(t, err)
	require.NotNil(t, chart.Heatmap)
	assert.Equal(t, []string{"Temperature", "Humidity"}, chart.Heatmap.Labels)

	raw, err := json.Marshal(chart)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"values":[[1,null],[null,null]]`)
}

func TestBuildChart_Unknown(t *testing.T) {
	_, err := BuildChart("radar", sampleDataset())
	assert.Error(t, err)
}
