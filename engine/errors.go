package engine

import (
	"fmt"

	"github.com/spektr-org/iaqdash/schema"
)

// AggregationError reports an aggregate or chart that could not be computed,
// typically because the dataset lacks a column. It never aborts a render
// pass: the affected chart is skipped and the rest are still built.
type AggregationError struct {
	Chart  string        // chart or table id, empty when raised outside a render pass
	Column schema.Column // offending column, empty when not column related
	Reason string
}

func (e *AggregationError) Error() string {
	msg := e.Reason
	if e.Column != "" {
		msg = fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	}
	if e.Chart != "" {
		return fmt.Sprintf("aggregation for %s failed: %s", e.Chart, msg)
	}
	return "aggregation failed: " + msg
}

// requireColumns returns an AggregationError for the first absent column.
func requireColumns(ds *Dataset, cols ...schema.Column) error {
	for _, c := range cols {
		if !ds.Has(c) {
			return &AggregationError{Column: c, Reason: "not present in dataset"}
		}
	}
	return nil
}
