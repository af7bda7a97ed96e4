package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// TEXT BUILDER — Summary metrics and the one-line reply
// ============================================================================

// DefaultReplyTemplate is used when no reply template is configured.
const DefaultReplyTemplate = "{rows} of {total_rows} readings, {period}. Mean temperature {mean_temperature}, mean humidity {mean_humidity}."

// Summarize computes the scalar metrics of a filtered dataset. totalRows is
// the row count before filtering.
func Summarize(ds *Dataset, totalRows int, opts ...Option) Metrics {
	return summarize(ds, totalRows, applyOptions(opts))
}

func summarize(ds *Dataset, totalRows int, cfg *config) Metrics {
	m := Metrics{
		TotalRows:       totalRows,
		Rows:            ds.Len(),
		MeanTemperature: NaN(),
		MeanHumidity:    NaN(),
		Statuses:        []string{},
	}
	if ds == nil {
		m.Period = DerivePeriod(nil, nil)
		m.Reply = "No data available to analyze."
		return m
	}

	m.Start, m.End = TimeRange(ds.Readings)
	m.Period = DerivePeriod(m.Start, m.End)
	m.TimestampNulls = ds.TimestampNulls
	m.Statuses = append(m.Statuses, ds.Statuses...)

	view := ReadingView(ds.Readings)
	if ds.Has(schema.Temperature) {
		m.MeanTemperature = Number(RoundTo2(AvgMeasure(view, string(schema.Temperature))))
	}
	if ds.Has(schema.Humidity) {
		m.MeanHumidity = Number(RoundTo2(AvgMeasure(view, string(schema.Humidity))))
	}

	if ds.Len() == 0 {
		m.Reply = "No readings match the selected filters. Try broadening the status or date selection."
		return m
	}
	m.Reply = ResolvePlaceholders(cfg.ReplyTemplate, m, cfg.Units)
	return m
}

// TimeRange returns the earliest and latest timestamps; nil when none parsed.
func TimeRange(readings []Reading) (start, end *time.Time) {
	for i := range readings {
		ts := readings[i].Timestamp
		if ts == nil {
			continue
		}
		if start == nil || ts.Before(*start) {
			start = ts
		}
		if end == nil || ts.After(*end) {
			end = ts
		}
	}
	return start, end
}

// DerivePeriod builds a human-readable period string from a time range.
func DerivePeriod(start, end *time.Time) string {
	if start == nil || end == nil {
		return "No dated readings"
	}
	const layout = "02 Jan 2006 15:04"
	if start.Equal(*end) {
		return start.Format(layout)
	}
	return fmt.Sprintf("%s – %s", start.Format(layout), end.Format(layout))
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed metrics into the reply template.
func ResolvePlaceholders(template string, m Metrics, units map[schema.Column]string) string {
	if template == "" {
		template = DefaultReplyTemplate
	}

	replacements := map[string]string{
		"{rows}":             fmt.Sprintf("%d", m.Rows),
		"{total_rows}":       fmt.Sprintf("%d", m.TotalRows),
		"{period}":           m.Period,
		"{statuses}":         strings.Join(m.Statuses, ", "),
		"{timestamp_nulls}":  fmt.Sprintf("%d", m.TimestampNulls),
		"{mean_temperature}": withUnit(m.MeanTemperature, schema.Temperature, units),
		"{mean_humidity}":    withUnit(m.MeanHumidity, schema.Humidity, units),
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return stripUnresolvedPlaceholders(result)
}

func withUnit(n Number, c schema.Column, units map[schema.Column]string) string {
	if n.IsNaN() {
		return "n/a"
	}
	unit := ""
	if meta, ok := schema.Lookup(c); ok {
		unit = meta.Unit
	}
	if u, ok := units[c]; ok {
		unit = u
	}
	return strings.TrimSpace(FormatNumber(float64(n)) + " " + unit)
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return text
	}
	return cleaned
}
