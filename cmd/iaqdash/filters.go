package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/iaqdash/engine"
)

// filterFlags are the dashboard filters shared by render and summary.
type filterFlags struct {
	statuses []string
	start    string
	end      string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, `ventilation statuses to keep, e.g. --status On,Auto ("--status=" keeps none)`)
	cmd.Flags().StringVar(&f.start, "start", "", "keep readings at or after this time (RFC3339, 2006-01-02 15:04 or a date)")
	cmd.Flags().StringVar(&f.end, "end", "", "keep readings at or before this time; a bare date covers the whole day")
}

// filters converts the flags. An unset --status keeps every status.
func (f *filterFlags) filters(cmd *cobra.Command) (engine.Filters, error) {
	var out engine.Filters
	if cmd.Flags().Changed("status") {
		out.Statuses = append([]string{}, f.statuses...)
	}

	var err error
	if out.Start, err = engine.ParseBound(f.start, false); err != nil {
		return engine.Filters{}, fmt.Errorf("--start: %w", err)
	}
	if out.End, err = engine.ParseBound(f.end, true); err != nil {
		return engine.Filters{}, fmt.Errorf("--end: %w", err)
	}
	if out.Start != nil && out.End != nil && out.End.Before(*out.Start) {
		return engine.Filters{}, fmt.Errorf("--end %s is before --start %s", f.end, f.start)
	}
	return out, nil
}
