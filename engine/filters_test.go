package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusesOf(readings []Reading) []string {
	out := make([]string, len(readings))
	for i, r := range readings {
		out[i] = r.VentilationStatus
	}
	return out
}

func TestFilterReadings_AllObservedStatusesIsNoop(t *testing.T) {
	ds := sampleDataset()

	got := FilterReadings(ds.Readings, SelectStatuses(ds.Statuses...))
	assert.Equal(t, ds.Readings, got)

	got = FilterReadings(ds.Readings, AllStatuses())
	assert.Equal(t, ds.Readings, got)
}

func TestFilterReadings_BlankStatusOnlyPassesUnrestricted(t *testing.T) {
	readings := []Reading{
		reading("2024-03-01 08:00", "On", vals{}),
		reading("2024-03-01 09:00", "", vals{}),
		reading("2024-03-01 10:00", "Off", vals{}),
	}
	ds := newDataset(readings)
	assert.Equal(t, []string{"On", "Off"}, ds.Statuses)

	// selecting every observed status drops the unlabelled reading
	got := FilterReadings(readings, SelectStatuses(ds.Statuses...))
	assert.Equal(t, []string{"On", "Off"}, statusesOf(got))

	got = FilterReadings(readings, AllStatuses())
	assert.Equal(t, readings, got)
}

func TestFilterReadings_EmptySelectionKeepsNothing(t *testing.T) {
	got := FilterReadings(sampleReadings(), SelectStatuses())
	assert.Empty(t, got)
}

func TestFilterReadings_StatusCaseInsensitive(t *testing.T) {
	got := FilterReadings(sampleReadings(), SelectStatuses(" off ", "AUTO"))
	assert.Equal(t, []string{"Off", "Off", "Auto", "Auto"}, statusesOf(got))
}

func TestFilterReadings_DateRangeInclusive(t *testing.T) {
	f := Filters{Start: at("2024-03-01 08:30"), End: at("2024-03-02 10:00")}

	got := FilterReadings(sampleReadings(), f)
	require.Len(t, got, 3)
	assert.Equal(t, *at("2024-03-01 09:00"), *got[0].Timestamp)
	assert.Equal(t, *at("2024-03-01 08:30"), *got[1].Timestamp)
	assert.Equal(t, *at("2024-03-02 10:00"), *got[2].Timestamp)
}

func TestFilterReadings_OpenRangeDropsUndated(t *testing.T) {
	got := FilterReadings(sampleReadings(), Filters{Start: at("2024-01-01 00:00")})
	assert.Len(t, got, 5)
	for _, r := range got {
		assert.NotNil(t, r.Timestamp)
	}
}

func TestFilterReadings_StatusAndRangeCombined(t *testing.T) {
	f := Filters{Statuses: []string{"On"}, End: at("2024-03-01 23:59")}
	got := FilterReadings(sampleReadings(), f)
	require.Len(t, got, 1)
	assert.Equal(t, "On", got[0].VentilationStatus)
}

func TestDatasetFilter_RecomputesStatusesAndNulls(t *testing.T) {
	ds := sampleDataset()
	require.Equal(t, 1, ds.TimestampNulls)

	filtered := ds.Filter(SelectStatuses("auto"))
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, []string{"Auto"}, filtered.Statuses)
	assert.Equal(t, 1, filtered.TimestampNulls)

	// source dataset untouched
	assert.Equal(t, 6, ds.Len())
	assert.Equal(t, []string{"Off", "On", "Auto"}, ds.Statuses)
}

func TestParseBound(t *testing.T) {
	b, err := ParseBound("", false)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseBound("2024-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, *at("2024-03-01 00:00"), *b)

	b, err = ParseBound("2024-03-01", true)
	require.NoError(t, err)
	assert.True(t, b.After(*at("2024-03-01 23:59")))
	assert.True(t, b.Before(*at("2024-03-02 00:00")))

	b, err = ParseBound("2024-03-01T08:30:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, *at("2024-03-01 08:30"), *b)

	_, err = ParseBound("next tuesday", false)
	assert.Error(t, err)
}
