package signalfeed

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads an uploaded CSV held in memory.
type CSVSource struct {
	data []byte
}

// NewCSVSource creates a source over raw upload bytes.
func NewCSVSource(data []byte) *CSVSource {
	return &CSVSource{data: bytes.TrimPrefix(data, utf8BOM)}
}

// Rows implements Source.
func (s *CSVSource) Rows(_ context.Context) ([]RawRow, error) {
	header, err := csv.NewReader(bytes.NewReader(s.data)).Read()
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeSignalSourceFailed, "failed to read CSV header", err)
	}

	if err := requireColumns(header); err != nil {
		return nil, err
	}

	var rows []RawRow
	if err := gocsv.UnmarshalBytes(s.data, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalSourceFailed, "failed to read CSV rows", err)
	}

	return rows, nil
}

// requireColumns reports the first required column missing from, or repeated in, the header
// as a row 0 parse error.
func requireColumns(header []string) error {
	count := make(map[string]int, len(header))
	for _, name := range header {
		count[name]++
	}

	for _, column := range []string{ColumnTimestamp, ColumnSignal} {
		switch count[column] {
		case 0:
			return errors.Wrap(errors.ErrCodeMissingColumn, "signal file is missing a required column",
				errors.NewParseError(0, column, "missing required column"))
		case 1:
		default:
			return errors.Wrap(errors.ErrCodeSignalParseFailed, "signal file repeats a required column",
				errors.NewParseError(0, column, "duplicate required column"))
		}
	}

	return nil
}
