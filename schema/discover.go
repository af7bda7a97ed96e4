package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/relvacode/iso8601"
)

// ============================================================================
// HEADER DISCOVERY — raw CSV headers → known columns
// ============================================================================
// Sensor exports disagree on unit encodings ("PM2.5 (µg/m³)" vs
// "PM2.5 (?g/m?)") and capitalization. Matching ignores the unit suffix and
// everything that is not a letter or digit. Profile overrides always win.
// ============================================================================

// Mapping is the result of header discovery.
type Mapping struct {
	Headers  []string       `json:"headers"`            // trimmed, original order
	Index    map[Column]int `json:"index"`              // column → header position
	Unmapped []string       `json:"unmapped,omitempty"` // snake_case keys of unknown headers
}

// Has reports whether a column was found.
func (m Mapping) Has(c Column) bool {
	_, ok := m.Index[c]
	return ok
}

// Missing returns the required columns absent from the mapping.
func (m Mapping) Missing(required []Column) []Column {
	var out []Column
	for _, c := range required {
		if !m.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Discover maps headers onto known columns. The first header matching a
// column wins; overrides map a column to an exact (trimmed) header.
func Discover(headers []string, overrides map[Column]string) Mapping {
	m := Mapping{
		Headers: make([]string, len(headers)),
		Index:   make(map[Column]int),
	}
	for i, h := range headers {
		m.Headers[i] = CleanHeader(h)
	}

	claimed := make(map[int]bool)
	for col, header := range overrides {
		want := CleanHeader(header)
		for i, h := range m.Headers {
			if h == want && !claimed[i] {
				m.Index[col] = i
				claimed[i] = true
				break
			}
		}
	}

	for i, h := range m.Headers {
		if claimed[i] {
			continue
		}
		col, ok := ParseColumn(h)
		if !ok || m.Has(col) {
			m.Unmapped = append(m.Unmapped, HeaderKey(h))
			continue
		}
		m.Index[col] = i
		claimed[i] = true
	}
	return m
}

// CleanHeader trims whitespace and a leading byte order mark.
func CleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

var unitSuffix = regexp.MustCompile(`\s*[\(\[].*[\)\]]\s*$`)

// HeaderKey converts "Light Intensity (lux)" → "light_intensity".
func HeaderKey(h string) string {
	h = unitSuffix.ReplaceAllString(CleanHeader(h), "")
	return strcase.ToSnake(h)
}

// compactKey keeps only lowercase letters and digits of HeaderKey.
func compactKey(h string) string {
	var b strings.Builder
	for _, r := range HeaderKey(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ============================================================================
// TIMESTAMP LAYOUTS
// ============================================================================

// TimestampLayouts are tried in order during detection and fallback parsing.
// Day-first dash layouts come first: that is what the sensor exports write.
var TimestampLayouts = []string{
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02/01/2006 15:04",
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
}

// detectThreshold is the share of samples a layout must parse to be chosen.
const detectThreshold = 0.8

// DetectLayout picks the first layout parsing at least 80% of the non-empty
// samples. Returns "" when none qualifies.
func DetectLayout(samples []string) string {
	values := make([]string, 0, len(samples))
	for _, s := range samples {
		if s = strings.TrimSpace(s); s != "" {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return ""
	}

	for _, layout := range TimestampLayouts {
		matches := 0
		for _, v := range values {
			if _, err := time.Parse(layout, v); err == nil {
				matches++
			}
		}
		if float64(matches)/float64(len(values)) >= detectThreshold {
			return layout
		}
	}
	return ""
}

// ParseTimestamp parses value with layout first, then every known layout,
// then permissive ISO 8601. ok is false when nothing matched.
func ParseTimestamp(value, layout string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if layout != "" {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, l := range TimestampLayouts {
		if l == layout {
			continue
		}
		if t, err := time.Parse(l, value); err == nil {
			return t, true
		}
	}
	if t, err := iso8601.ParseString(value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

var strftimeDirectives = map[byte]string{
	'Y': "2006", 'y': "06", 'm': "01", 'd': "02", 'H': "15", 'I': "03",
	'M': "04", 'S': "05", 'p': "PM", 'b': "Jan", 'B': "January", 'z': "-0700",
	'%': "%",
}

// NormalizeLayout accepts either a Go layout or a strftime pattern such as
// "%d-%m-%Y %H:%M" and returns a Go layout.
func NormalizeLayout(layout string) (string, error) {
	if !strings.Contains(layout, "%") {
		return layout, nil
	}
	var b strings.Builder
	for i := 0; i < len(layout); i++ {
		if layout[i] != '%' {
			b.WriteByte(layout[i])
			continue
		}
		if i+1 >= len(layout) {
			return "", fmt.Errorf("dangling %% in timestamp layout %q", layout)
		}
		i++
		repl, ok := strftimeDirectives[layout[i]]
		if !ok {
			return "", fmt.Errorf("unsupported directive %%%c in timestamp layout %q", layout[i], layout)
		}
		b.WriteString(repl)
	}
	return b.String(), nil
}
