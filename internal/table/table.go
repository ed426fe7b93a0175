// Package table implements the master annotation table: rows indexed by a
// unique query identifier, uniquely named string columns and an explicit
// missing marker for absent cells.
package table

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// DefaultIndexName labels the identifier column of a finalized table.
	DefaultIndexName = "queryname"

	// DefaultMissing is the token written for missing cells.
	DefaultMissing = "NA"
)

var (
	// ErrDuplicateKey is returned when a row key is added twice
	ErrDuplicateKey = errors.New("duplicate row key")

	// ErrDuplicateColumn is returned when a column name is already present
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrUnknownColumn is returned for a column that does not exist
	ErrUnknownColumn = errors.New("unknown column")

	// ErrRowWidth is returned when a row does not match the column count
	ErrRowWidth = errors.New("row width does not match column count")
)

// Cell is one table value. Valid is false for a missing entry.
type Cell struct {
	Value string
	Valid bool
}

// Table is an ordered, key-indexed table of string cells.
// The zero value is not usable; create tables with New or FromKeys.
type Table struct {
	indexName string
	columns   []string
	colPos    map[string]int
	keys      []string
	rowPos    map[string]int
	rows      [][]Cell
}

// New creates an empty table with the given columns.
func New(indexName string, columns ...string) (*Table, error) {
	t := &Table{
		indexName: indexName,
		colPos:    make(map[string]int, len(columns)),
		rowPos:    make(map[string]int),
	}
	for _, c := range columns {
		if err := t.appendColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromKeys creates a table with one row per distinct key and no columns.
func FromKeys(indexName string, keys []string) *Table {
	t := &Table{
		indexName: indexName,
		colPos:    make(map[string]int),
		keys:      make([]string, 0, len(keys)),
		rowPos:    make(map[string]int, len(keys)),
		rows:      make([][]Cell, 0, len(keys)),
	}
	for _, k := range keys {
		if _, ok := t.rowPos[k]; ok {
			continue
		}
		t.rowPos[k] = len(t.keys)
		t.keys = append(t.keys, k)
		t.rows = append(t.rows, nil)
	}
	return t
}

func (t *Table) appendColumn(name string) error {
	if _, ok := t.colPos[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	t.colPos[name] = len(t.columns)
	t.columns = append(t.columns, name)
	return nil
}

// IndexName returns the label of the identifier column.
func (t *Table) IndexName() string { return t.indexName }

// SetIndexName relabels the identifier column.
func (t *Table) SetIndexName(name string) { t.indexName = name }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Keys returns a copy of the row keys in order.
func (t *Table) Keys() []string { return slices.Clone(t.keys) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.keys) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// HasKey reports whether a row with key exists.
func (t *Table) HasKey(key string) bool {
	_, ok := t.rowPos[key]
	return ok
}

// HasColumn reports whether a column named name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colPos[name]
	return ok
}

// AddRow appends a row of valid cells.
func (t *Table) AddRow(key string, values []string) error {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Value: v, Valid: true}
	}
	return t.AddCells(key, cells)
}

// AddCells appends a row. The cell slice is copied.
func (t *Table) AddCells(key string, cells []Cell) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("%w: row %q has %d cells, table has %d columns", ErrRowWidth, key, len(cells), len(t.columns))
	}
	if _, ok := t.rowPos[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	t.rowPos[key] = len(t.keys)
	t.keys = append(t.keys, key)
	t.rows = append(t.rows, slices.Clone(cells))
	return nil
}

// Get returns the value at (key, column). ok is false when the row or
// column does not exist or the cell is missing.
func (t *Table) Get(key, column string) (value string, ok bool) {
	r, rok := t.rowPos[key]
	c, cok := t.colPos[column]
	if !rok || !cok {
		return "", false
	}
	cell := t.cell(r, c)
	return cell.Value, cell.Valid
}

// Row returns a copy of the cells of key, aligned with Columns.
func (t *Table) Row(key string) ([]Cell, bool) {
	r, ok := t.rowPos[key]
	if !ok {
		return nil, false
	}
	out := make([]Cell, len(t.columns))
	for c := range t.columns {
		out[c] = t.cell(r, c)
	}
	return out, true
}

// cell tolerates rows shorter than the column list; rows created by
// FromKeys start empty and stay short until a column is added.
func (t *Table) cell(r, c int) Cell {
	row := t.rows[r]
	if c >= len(row) {
		return Cell{}
	}
	return row[c]
}

// AddColumn appends a column whose value for each row is given by fill.
func (t *Table) AddColumn(name string, fill func(key string) (string, bool)) error {
	if err := t.appendColumn(name); err != nil {
		return err
	}
	for r, key := range t.keys {
		v, ok := fill(key)
		t.rows[r] = t.padded(r)
		t.rows[r][len(t.columns)-1] = Cell{Value: v, Valid: ok}
	}
	return nil
}

func (t *Table) padded(r int) []Cell {
	row := t.rows[r]
	for len(row) < len(t.columns) {
		row = append(row, Cell{})
	}
	return row
}

// RenameColumn renames a column in place.
func (t *Table) RenameColumn(from, to string) error {
	pos, ok := t.colPos[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, from)
	}
	if from == to {
		return nil
	}
	if _, exists := t.colPos[to]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, to)
	}
	delete(t.colPos, from)
	t.colPos[to] = pos
	t.columns[pos] = to
	return nil
}

// Join returns a new table holding every row of t in order followed by the
// rows of other whose keys t lacks, in other's order. The columns of t come
// first, then those of other; cells without a counterpart are missing.
// Column names must not overlap.
func (t *Table) Join(other *Table) (*Table, error) {
	for _, c := range other.columns {
		if t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, c)
		}
	}

	columns := append(slices.Clone(t.columns), other.columns...)
	out, err := New(t.indexName, columns...)
	if err != nil {
		return nil, err
	}

	width := len(columns)
	for r, key := range t.keys {
		cells := make([]Cell, width)
		for c := range t.columns {
			cells[c] = t.cell(r, c)
		}
		if or, ok := other.rowPos[key]; ok {
			for c := range other.columns {
				cells[len(t.columns)+c] = other.cell(or, c)
			}
		}
		if err := out.AddCells(key, cells); err != nil {
			return nil, err
		}
	}
	for or, key := range other.keys {
		if t.HasKey(key) {
			continue
		}
		cells := make([]Cell, width)
		for c := range other.columns {
			cells[len(t.columns)+c] = other.cell(or, c)
		}
		if err := out.AddCells(key, cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}
