package engine

import (
	"time"

	"github.com/spektr-org/iaqdash/schema"
)

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

type vals map[schema.Column]float64

func reading(ts string, status string, v vals) Reading {
	r := NewReading()
	if ts != "" {
		r.Timestamp = at(ts)
	}
	r.VentilationStatus = status
	for c, x := range v {
		r.Set(c, x)
	}
	return r
}

// newDataset builds a dataset carrying cols (every known column when none
// are given).
func newDataset(readings []Reading, cols ...schema.Column) *Dataset {
	if len(cols) == 0 {
		for _, c := range schema.Columns {
			cols = append(cols, c.Key)
		}
	}
	ds := &Dataset{
		Name:     "test",
		Columns:  make(map[schema.Column]bool, len(cols)),
		Readings: readings,
		Statuses: ObservedStatuses(readings),
	}
	for _, c := range cols {
		ds.Columns[c] = true
	}
	for _, r := range readings {
		if r.Timestamp == nil {
			ds.TimestampNulls++
		}
	}
	return ds
}

func sampleReadings() []Reading {
	return []Reading{
		reading("2024-03-01 08:00", "Off", vals{schema.Temperature: 20, schema.Humidity: 40, schema.CO2: 600, schema.PM25: 12, schema.PM10: 20, schema.TVOC: 150, schema.CO: 0.4, schema.Light: 300, schema.Motion: 1, schema.Occupancy: 2}),
		reading("2024-03-01 09:00", "On", vals{schema.Temperature: 21, schema.Humidity: 42, schema.CO2: 700, schema.PM25: 8, schema.PM10: 15, schema.TVOC: 120, schema.CO: 0.3, schema.Light: 450, schema.Motion: 0, schema.Occupancy: 4}),
		reading("2024-03-01 08:30", "Off", vals{schema.Temperature: 22, schema.Humidity: 45, schema.CO2: 900, schema.PM25: 15, schema.PM10: 25, schema.TVOC: 200, schema.CO: 0.5, schema.Light: 320, schema.Motion: 1, schema.Occupancy: 6}),
		reading("2024-03-02 10:00", "Auto", vals{schema.Temperature: 23, schema.Humidity: 50, schema.CO2: 800, schema.PM25: 10, schema.PM10: 18, schema.TVOC: 180, schema.CO: 0.6, schema.Light: 500, schema.Motion: 1, schema.Occupancy: 3}),
		reading("2024-03-02 11:00", "On", vals{schema.Temperature: 24, schema.Humidity: 48, schema.CO2: 650, schema.PM25: 9, schema.PM10: 16, schema.TVOC: 110, schema.CO: 0.2, schema.Light: 520, schema.Motion: 0, schema.Occupancy: 1}),
		reading("", "Auto", vals{schema.Temperature: 22.5, schema.Humidity: 47, schema.CO2: 750, schema.PM25: 11, schema.PM10: 19, schema.TVOC: 160, schema.CO: 0.4, schema.Light: 400, schema.Motion: 1, schema.Occupancy: 2}),
	}
}

func sampleDataset() *Dataset {
	return newDataset(sampleReadings())
}
