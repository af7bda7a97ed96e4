package schema

import "strings"

// ============================================================================
// SCHEMA — Column registry for indoor air quality readings
// ============================================================================
// Every column the dashboard understands is declared here once. The loader
// maps raw CSV headers onto these keys; the engine reads typed fields and
// uses the registry only for labels, units and ordering.
// ============================================================================

// Column identifies a known reading column.
type Column string

const (
	Timestamp         Column = "timestamp"
	Temperature       Column = "temperature"
	Humidity          Column = "humidity"
	CO2               Column = "co2"
	PM25              Column = "pm25"
	PM10              Column = "pm10"
	TVOC              Column = "tvoc"
	CO                Column = "co"
	Light             Column = "light"
	Motion            Column = "motion"
	Occupancy         Column = "occupancy"
	VentilationStatus Column = "ventilation_status"
)

// ColumnMeta describes one known column.
type ColumnMeta struct {
	Key         Column   `json:"key" yaml:"key"`
	DisplayName string   `json:"displayName" yaml:"display_name"`
	Unit        string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Numeric     bool     `json:"numeric" yaml:"numeric"`
	Aliases     []string `json:"-" yaml:"-"` // compact header forms, see compactKey
}

// Columns is the registry in canonical display order.
var Columns = []ColumnMeta{
	{Key: Timestamp, DisplayName: "Timestamp", Aliases: []string{"timestamp", "datetime", "time", "date", "recordedat"}},
	{Key: Temperature, DisplayName: "Temperature", Unit: "°C", Numeric: true, Aliases: []string{"temperature", "temp", "temperaturec"}},
	{Key: Humidity, DisplayName: "Humidity", Unit: "%", Numeric: true, Aliases: []string{"humidity", "relativehumidity", "rh"}},
	{Key: CO2, DisplayName: "CO₂", Unit: "ppm", Numeric: true, Aliases: []string{"co2", "carbondioxide"}},
	{Key: PM25, DisplayName: "PM2.5", Unit: "µg/m³", Numeric: true, Aliases: []string{"pm25", "pm2p5"}},
	{Key: PM10, DisplayName: "PM10", Unit: "µg/m³", Numeric: true, Aliases: []string{"pm10"}},
	{Key: TVOC, DisplayName: "TVOC", Unit: "ppb", Numeric: true, Aliases: []string{"tvoc", "voc"}},
	{Key: CO, DisplayName: "CO", Unit: "ppm", Numeric: true, Aliases: []string{"co", "carbonmonoxide"}},
	{Key: Light, DisplayName: "Light Intensity", Unit: "lux", Numeric: true, Aliases: []string{"light", "lightintensity", "lux", "illuminance"}},
	{Key: Motion, DisplayName: "Motion Detected", Numeric: true, Aliases: []string{"motion", "motiondetected", "pir"}},
	{Key: Occupancy, DisplayName: "Occupancy Count", Numeric: true, Aliases: []string{"occupancy", "occupancycount", "occupants", "peoplecount"}},
	{Key: VentilationStatus, DisplayName: "Ventilation Status", Aliases: []string{"ventilationstatus", "ventilation", "ventstatus"}},
}

var registry = func() map[Column]ColumnMeta {
	m := make(map[Column]ColumnMeta, len(Columns))
	for _, c := range Columns {
		m[c.Key] = c
	}
	return m
}()

// Lookup returns the metadata of a known column.
func Lookup(c Column) (ColumnMeta, bool) {
	meta, ok := registry[c]
	return meta, ok
}

// ParseColumn resolves a column key ("co2") or any header alias ("CO2 (ppm)").
func ParseColumn(s string) (Column, bool) {
	if _, ok := registry[Column(s)]; ok {
		return Column(s), true
	}
	key := compactKey(s)
	for _, c := range Columns {
		for _, alias := range c.Aliases {
			if alias == key {
				return c.Key, true
			}
		}
	}
	return "", false
}

// NumericColumns returns the numeric columns in canonical order.
func NumericColumns() []Column {
	out := make([]Column, 0, len(Columns))
	for _, c := range Columns {
		if c.Numeric {
			out = append(out, c.Key)
		}
	}
	return out
}

// Label returns "DisplayName (unit)", honoring unit overrides.
func Label(c Column, units map[Column]string) string {
	meta, ok := registry[c]
	if !ok {
		return string(c)
	}
	unit := meta.Unit
	if u, ok := units[c]; ok {
		unit = u
	}
	if unit == "" {
		return meta.DisplayName
	}
	return meta.DisplayName + " (" + unit + ")"
}

// DisplayName returns the bare display name of a column.
func DisplayName(c Column) string {
	if meta, ok := registry[c]; ok {
		return meta.DisplayName
	}
	return strings.TrimSpace(string(c))
}
