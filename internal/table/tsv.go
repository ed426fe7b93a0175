package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyInput is returned by ReadTSV when there is no header row.
var ErrEmptyInput = errors.New("no header row")

// WriteTSV writes t as tab-delimited text: a header row whose first field is
// the index name, then one row per key. Missing cells are written as missing.
func WriteTSV(w io.Writer, t *Table, missing string) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := make([]string, 0, t.Width()+1)
	header = append(header, t.indexName)
	header = append(header, t.columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, t.Width()+1)
	for r, key := range t.keys {
		record[0] = key
		for c := range t.columns {
			cell := t.cell(r, c)
			if cell.Valid {
				record[c+1] = cell.Value
			} else {
				record[c+1] = missing
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", key, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTSV parses a table written by WriteTSV. Fields equal to missing become
// missing cells.
func ReadTSV(r io.Reader, missing string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, ErrEmptyInput
	}

	t, err := New(header[0], header[1:]...)
	if err != nil {
		return nil, err
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		cells := make([]Cell, len(rec)-1)
		for i, v := range rec[1:] {
			cells[i] = Cell{Value: v, Valid: v != missing}
		}
		if err := t.AddCells(rec[0], cells); err != nil {
			return nil, err
		}
	}
	return t, nil
}
