// Package iaqdash builds indoor air quality dashboards from sensor CSV
// exports.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/iaqdash/engine"
//	    "github.com/spektr-org/iaqdash/helpers"
//	    "github.com/spektr-org/iaqdash/schema"
//	)
//
//	ds, err := helpers.LoadFile("office.csv", schema.DefaultProfile())
//	dash := engine.Render(ds, engine.SelectStatuses("On", "Auto"),
//	    engine.WithHistogramBins(20),
//	)
//
// helpers loads and validates the CSV, engine filters the readings and
// returns render-ready output (chart configs, tables and summary metrics).
// A chart that cannot be built is reported in Dashboard.Errors; the others
// are still produced.
//
// The server package exposes the same pipeline over HTTP and cmd/iaqdash
// wraps both in a CLI.
// The engine never calls any external service; all computation is local.
package iaqdash
