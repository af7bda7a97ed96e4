package engine

import (
	"fmt"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// RECORD VIEW
// ============================================================================
// Grouping reads readings by key: dimensions are the ventilation status and
// the derived hour of day, measures are the numeric column names. A group is
// a SubView of index positions, so grouping never copies readings.
// ============================================================================

// RecordView provides indexed access to readings. Missing measures are NaN
// and missing dimensions are "".
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
}

// Dimensions available on reading views.
const (
	DimStatus = string(schema.VentilationStatus)
	DimHour   = "hour"
)

// ReadingView exposes readings as a RecordView keyed by column names.
func ReadingView(readings []Reading) RecordView {
	return readingView(readings)
}

type readingView []Reading

func (v readingView) Len() int { return len(v) }

func (v readingView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v) {
		return ""
	}
	switch key {
	case DimStatus:
		return v[i].VentilationStatus
	case DimHour:
		if h, ok := v[i].Hour(); ok {
			return fmt.Sprintf("%02d", h)
		}
	}
	return ""
}

func (v readingView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v) {
		return Missing
	}
	val, _ := v[i].Value(schema.Column(key))
	return val
}

// SubView is the subset of a parent view at the given positions.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) *SubView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return Missing
	}
	return v.parent.Measure(v.indices[i], key)
}
