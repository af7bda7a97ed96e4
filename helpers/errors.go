package helpers

import (
	"fmt"
	"strings"

	"github.com/spektr-org/iaqdash/schema"
)

// LoadError reports a dataset that could not be loaded. Hint tells the user
// what a valid file looks like.
type LoadError struct {
	Reason string
	Hint   string
	Line   int // 1-based CSV line, 0 when not tied to a line
	Err    error
}

func (e *LoadError) Error() string {
	msg := "cannot load dataset: " + e.Message()
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Message describes the failure without the hint.
func (e *LoadError) Message() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// formatHint describes the expected file for the given required columns.
func formatHint(required []schema.Column) string {
	names := make([]string, 0, len(required))
	for _, c := range required {
		names = append(names, schema.DisplayName(c))
	}
	hint := "Expected a UTF-8 CSV file with a header row"
	if len(names) > 0 {
		hint += " containing " + strings.Join(names, ", ")
	}
	return hint + ", for example: Timestamp,Temperature (°C),Humidity (%),CO2 (ppm),Ventilation_Status with timestamps like 01-03-2024 08:00"
}
