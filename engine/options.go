package engine

import (
	"io"
	"log/slog"

	"github.com/spektr-org/iaqdash/schema"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Render()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger        *slog.Logger
	HistogramBins int
	Palette       []string
	Units         map[schema.Column]string
	StatusOrder   []string // fixes status → color across charts
	ReplyTemplate string
}

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// DefaultHistogramBins is the histogram bin count when none is configured.
const DefaultHistogramBins = 30

// MaxHistogramBins caps the bin count; larger requests are clamped.
const MaxHistogramBins = schema.MaxHistogramBins

// WithLogger sets the logger for render diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithHistogramBins sets the number of histogram bins, clamped to
// MaxHistogramBins. Non-positive values keep the default.
func WithHistogramBins(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.HistogramBins = min(n, MaxHistogramBins)
		}
	}
}

// WithPalette replaces the series color palette.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithUnits overrides column units used in axis labels.
func WithUnits(units map[schema.Column]string) Option {
	return func(c *config) {
		c.Units = units
	}
}

// WithStatusOrder fixes the color assignment of ventilation statuses.
func WithStatusOrder(statuses []string) Option {
	return func(c *config) {
		c.StatusOrder = statuses
	}
}

// WithReplyTemplate sets the summary reply template. Placeholders: {rows},
// {total_rows}, {period}, {statuses}, {timestamp_nulls}, {mean_temperature},
// {mean_humidity}.
func WithReplyTemplate(tpl string) Option {
	return func(c *config) {
		c.ReplyTemplate = tpl
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		HistogramBins: DefaultHistogramBins,
		Palette:       defaultColors,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// colorFor returns a stable color for a series key.
func (c *config) colorFor(key string, fallbackIndex int) string {
	for i, s := range c.StatusOrder {
		if s == key {
			return c.Palette[i%len(c.Palette)]
		}
	}
	return c.Palette[fallbackIndex%len(c.Palette)]
}

func (c *config) label(col schema.Column) string {
	return schema.Label(col, c.Units)
}
