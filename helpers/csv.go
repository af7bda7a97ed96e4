package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spektr-org/iaqdash/engine"
	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// CSV HELPER — Parses sensor CSV exports into an engine.Dataset
// ============================================================================
// The consumer reads the CSV from wherever it lives (file, upload, body).
// This helper converts the raw bytes into typed Readings using header
// discovery and the dataset profile. Cell level problems never fail a load:
// a bad timestamp becomes nil and a bad number becomes missing.
// ============================================================================

// layoutSamples is how many timestamp values feed layout detection.
const layoutSamples = 200

// Load parses CSV bytes into a Dataset. Every failure is a *LoadError.
func Load(data []byte, profile schema.Profile) (*engine.Dataset, error) {
	ds, _, err := load(data, profile)
	return ds, err
}

// LoadFile reads and parses a CSV file; the dataset is named after the file.
func LoadFile(path string, profile schema.Profile) (*engine.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Reason: "cannot read file " + path, Err: err}
	}
	ds, err := Load(data, profile)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(path)
	return ds, nil
}

func load(data []byte, profile schema.Profile) (*engine.Dataset, schema.Mapping, error) {
	required := profile.Required
	if required == nil {
		required = schema.DefaultRequired
	}
	hint := formatHint(required)
	fail := func(reason string, line int, err error) (*engine.Dataset, schema.Mapping, error) {
		return nil, schema.Mapping{}, &LoadError{Reason: reason, Hint: hint, Line: line, Err: err}
	}

	layout, err := schema.NormalizeLayout(profile.TimestampLayout)
	if err != nil {
		return fail("invalid timestamp layout", 0, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fail("file is empty", 0, nil)
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return fail("file is not UTF-8 text", 0, nil)
	}

	rows, err := readRows(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return fail("malformed CSV", perr.Line, perr.Err)
		}
		return fail("malformed CSV", 0, err)
	}
	if len(rows) == 0 {
		return fail("file is empty", 0, nil)
	}
	if len(rows) == 1 {
		return fail("file has a header row but no data rows", 0, nil)
	}

	mapping := schema.Discover(rows[0], profile.Headers)
	if missing := mapping.Missing(required); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		return fail("missing required column(s): "+strings.Join(names, ", "), 1, nil)
	}

	body := rows[1:]
	if idx, ok := mapping.Index[schema.Timestamp]; ok && layout == "" {
		layout = schema.DetectLayout(sampleColumn(body, idx, layoutSamples))
	}

	ds := &engine.Dataset{
		Name:            profile.Name,
		Headers:         mapping.Headers,
		Columns:         make(map[schema.Column]bool, len(mapping.Index)),
		Readings:        make([]engine.Reading, 0, len(body)),
		TimestampLayout: layout,
		Units:           profile.Units,
	}
	for c := range mapping.Index {
		ds.Columns[c] = true
	}

	for _, row := range body {
		r := parseRow(row, mapping, layout)
		if ds.Has(schema.Timestamp) && r.Timestamp == nil {
			ds.TimestampNulls++
		}
		ds.Readings = append(ds.Readings, r)
	}
	ds.Statuses = engine.ObservedStatuses(ds.Readings)
	return ds, mapping, nil
}

func readRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func sampleColumn(rows [][]string, idx, limit int) []string {
	out := make([]string, 0, limit)
	for _, row := range rows {
		if len(out) == limit {
			break
		}
		if v := cell(row, idx); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cell returns a trimmed value; short rows read as empty.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseRow(row []string, mapping schema.Mapping, layout string) engine.Reading {
	r := engine.NewReading()
	for col, idx := range mapping.Index {
		val := cell(row, idx)
		switch col {
		case schema.Timestamp:
			if t, ok := schema.ParseTimestamp(val, layout); ok {
				ts := t
				r.Timestamp = &ts
			}
		case schema.VentilationStatus:
			r.VentilationStatus = val
		case schema.Motion:
			r.Motion = parseMotion(val)
		case schema.Occupancy:
			r.Occupancy = parseOccupancy(val)
		default:
			r.Set(col, parseNumber(val))
		}
	}
	return r
}

// ============================================================================
// CELL PARSERS
// ============================================================================

func parseNumber(val string) float64 {
	if val == "" {
		return engine.Missing
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsInf(f, 0) {
		return engine.Missing
	}
	return f
}

func parseMotion(val string) float64 {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "y", "t":
		return 1
	case "0", "false", "no", "n", "f":
		return 0
	}
	f := parseNumber(val)
	if math.IsNaN(f) {
		return engine.Missing
	}
	if f != 0 {
		return 1
	}
	return 0
}

func parseOccupancy(val string) float64 {
	f := parseNumber(val)
	if math.IsNaN(f) || f < 0 || f != math.Trunc(f) {
		return engine.Missing
	}
	return f
}

// ============================================================================
// INSPECTION
// ============================================================================

// DatasetInfo describes a loaded dataset without its readings.
type DatasetInfo struct {
	Name            string          `json:"name,omitempty"`
	Headers         []string        `json:"headers"`
	Columns         []schema.Column `json:"columns"`
	Unmapped        []string        `json:"unmapped,omitempty"`
	Statuses        []string        `json:"statuses"`
	Rows            int             `json:"rows"`
	Start           *time.Time      `json:"start,omitempty"`
	End             *time.Time      `json:"end,omitempty"`
	TimestampLayout string          `json:"timestampLayout,omitempty"`
	TimestampNulls  int             `json:"timestampNulls"`
}

// Inspect loads data and returns its description.
func Inspect(data []byte, profile schema.Profile) (*engine.Dataset, *DatasetInfo, error) {
	ds, mapping, err := load(data, profile)
	if err != nil {
		return nil, nil, err
	}
	info := Info(ds)
	info.Unmapped = mapping.Unmapped
	return ds, info, nil
}

// Info summarizes a dataset. Columns follow the registry order.
func Info(ds *engine.Dataset) *DatasetInfo {
	info := &DatasetInfo{
		Name:            ds.Name,
		Headers:         ds.Headers,
		Columns:         []schema.Column{},
		Statuses:        ds.Statuses,
		Rows:            ds.Len(),
		TimestampLayout: ds.TimestampLayout,
		TimestampNulls:  ds.TimestampNulls,
	}
	for _, meta := range schema.Columns {
		if ds.Has(meta.Key) {
			info.Columns = append(info.Columns, meta.Key)
		}
	}
	info.Start, info.End = engine.TimeRange(ds.Readings)
	return info
}
