package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Header row as written by the gateway export (mangled units).
var gatewayHeaders = []string{
	" Timestamp", "Temperature (?C)", "Humidity (%)", "CO2 (ppm)",
	"PM2.5 (?g/m?)", "PM10 (?g/m?)", "TVOC (ppb)", "CO (ppm)",
	"Light Intensity (lux)", "Motion Detected", "Occupancy Count",
	"Ventilation Status ", "Room ID",
}

func TestDiscoverGatewayHeaders(t *testing.T) {
	m := Discover(gatewayHeaders, nil)

	for i, c := range []Column{
		Timestamp, Temperature, Humidity, CO2, PM25, PM10, TVOC, CO,
		Light, Motion, Occupancy, VentilationStatus,
	} {
		idx, ok := m.Index[c]
		require.True(t, ok, "column %s should be mapped", c)
		assert.Equal(t, i, idx, "column %s index", c)
	}

	assert.Equal(t, "Timestamp", m.Headers[0], "headers are trimmed")
	assert.Equal(t, "Ventilation Status", m.Headers[11], "headers are trimmed")
	assert.Equal(t, []string{"room_id"}, m.Unmapped)
}

func TestDiscoverUnitVariantsMatchSameColumn(t *testing.T) {
	for _, h := range []string{"PM2.5 (µg/m³)", "PM2.5 (?g/m?)", "pm2.5", "PM25 [ug/m3]"} {
		c, ok := ParseColumn(h)
		require.True(t, ok, h)
		assert.Equal(t, PM25, c, h)
	}
}

func TestDiscoverFirstMatchWins(t *testing.T) {
	m := Discover([]string{"Temp", "Temperature (C)"}, nil)
	assert.Equal(t, 0, m.Index[Temperature])
	assert.Len(t, m.Unmapped, 1)
}

func TestDiscoverOverrides(t *testing.T) {
	m := Discover([]string{"Temperature", "Sensor T2"}, map[Column]string{
		Temperature: "Sensor T2",
	})
	assert.Equal(t, 1, m.Index[Temperature])
	assert.Equal(t, []string{"temperature"}, m.Unmapped)
}

func TestDiscoverBOM(t *testing.T) {
	m := Discover([]string{"\ufeffTimestamp", "Ventilation Status"}, nil)
	assert.True(t, m.Has(Timestamp))
	assert.Empty(t, m.Missing(DefaultRequired))
}

func TestMissingRequired(t *testing.T) {
	m := Discover([]string{"Timestamp", "CO2"}, nil)
	assert.Equal(t, []Column{VentilationStatus}, m.Missing(DefaultRequired))
}

func TestLabelUnitOverride(t *testing.T) {
	assert.Equal(t, "PM2.5 (µg/m³)", Label(PM25, nil))
	assert.Equal(t, "PM2.5 (ug/m3)", Label(PM25, map[Column]string{PM25: "ug/m3"}))
	assert.Equal(t, "Occupancy Count", Label(Occupancy, nil))
}

// ============================================================================
// TIMESTAMP TESTS
// ============================================================================

func TestDetectLayout(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    string
	}{
		{"day first dashes", []string{"13-03-2024 10:00", "13-03-2024 10:15", ""}, "02-01-2006 15:04"},
		{"iso with seconds", []string{"2024-03-13 10:00:00", "2024-03-13 10:15:00"}, "2006-01-02 15:04:05"},
		{"rfc3339", []string{"2024-03-13T10:00:00Z", "2024-03-13T10:15:00+01:00"}, time.RFC3339},
		{"mostly valid", []string{"01-02-2024 00:00", "01-02-2024 01:00", "01-02-2024 02:00", "01-02-2024 03:00", "garbage"}, "02-01-2006 15:04"},
		{"nothing parses", []string{"yesterday", "soon"}, ""},
		{"empty", []string{"", " "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLayout(tt.samples))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, ok := ParseTimestamp("05-03-2024 14:30", "02-01-2006 15:04")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), ts)

	// Falls back to other layouts when the preferred one does not match.
	ts, ok = ParseTimestamp("2024-03-05 14:30:00", "02-01-2006 15:04")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), ts)

	// Permissive ISO 8601 as the last resort.
	ts, ok = ParseTimestamp("2024-03-05T14:30:00.250Z", "")
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	_, ok = ParseTimestamp("not a date", "")
	assert.False(t, ok)
	_, ok = ParseTimestamp("  ", "")
	assert.False(t, ok)
}

func TestNormalizeLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"%d-%m-%Y %H:%M", "02-01-2006 15:04", false},
		{"%Y-%m-%dT%H:%M:%S", "2006-01-02T15:04:05", false},
		{"2006-01-02", "2006-01-02", false},
		{"", "", false},
		{"%Q", "", true},
		{"%d-%", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeLayout(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
