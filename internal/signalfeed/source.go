// Package signalfeed turns an uploaded signal file into a normalized feed and
// renders the comma-joined strings pasted into the charting platform.
package signalfeed

import (
	"context"
)

// Required column names.
const (
	ColumnTimestamp = "timestamp"
	ColumnSignal    = "signal"
)

// RawRow is one data row of an upload before the timestamp is parsed.
type RawRow struct {
	Timestamp string `csv:"timestamp"`
	Signal    string `csv:"signal"`
}

// Source yields the raw rows of an upload in file order.
type Source interface {
	Rows(ctx context.Context) ([]RawRow, error)
}
