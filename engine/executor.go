package engine

import (
	"time"
)

// ============================================================================
// EXECUTOR — One render pass
// ============================================================================
// Entry point: Render(ds, filters, opts...)
//
// Pipeline:
//   1. Apply filters → filtered Dataset
//   2. Summary metrics
//   3. Charts, each built in isolation
//   4. Tables, each built in isolation
//   5. Return Dashboard
//
// There is no state between passes: every call starts from the loaded
// Dataset and the filters it is given.
// ============================================================================

// Render filters a dataset and builds the full dashboard. A chart or table
// that fails is recorded in Dashboard.Errors; the rest are still produced.
//
// Options:
//   - WithLogger(l): diagnostics go to l instead of being discarded
//   - WithHistogramBins(n): histogram bin count (default 30)
//   - WithPalette(colors), WithUnits(units), WithReplyTemplate(tpl)
func Render(ds *Dataset, filters Filters, opts ...Option) *Dashboard {
	cfg := applyOptions(opts)
	began := time.Now()

	if ds == nil {
		ds = &Dataset{}
	}
	if cfg.Units == nil {
		cfg.Units = ds.Units
	}
	// Colors follow the unfiltered status list so a status keeps its color
	// whatever the selection.
	if cfg.StatusOrder == nil {
		cfg.StatusOrder = ds.Statuses
	}

	filtered := ds.Filter(filters)
	cfg.Logger.Debug("filters applied",
		"rows", ds.Len(), "filtered", filtered.Len(),
		"statuses", filters.Statuses, "start", filters.Start, "end", filters.End)

	dash := &Dashboard{
		Metrics: summarize(filtered, ds.Len(), cfg),
		Filters: filters,
	}

	charts, chartErrs := buildCharts(filtered, cfg)
	tables, tableErrs := buildTables(filtered, cfg)
	dash.Charts = charts
	dash.Tables = tables
	dash.Errors = append(chartErrs, tableErrs...)

	cfg.Logger.Info("dashboard rendered",
		"dataset", ds.Name,
		"rows", filtered.Len(),
		"charts", len(dash.Charts),
		"tables", len(dash.Tables),
		"errors", len(dash.Errors),
		"elapsed", time.Since(began))
	return dash
}
