package parser

import (
	"fmt"
	"strconv"

	"github.com/sha1n/pandannotate/internal/table"
)

// HitRecord is one parsed hit line: column name to raw value. It always
// holds QueryColumn.
type HitRecord map[string]string

type candidate struct {
	rec    HitRecord
	eval   float64
	pident float64
}

// Resolver folds many hits per query into one. A hit replaces the stored
// one when its e-value is strictly lower, or equal with a strictly higher
// percent identity; otherwise the first seen hit stays.
type Resolver struct {
	evalCol   string
	pidentCol string
	order     []string
	best      map[string]*candidate
}

// NewResolver compares hits on the <prefix>_eval and <prefix>_pident columns.
func NewResolver(prefix string) *Resolver {
	return &Resolver{
		evalCol:   Namespace(prefix, "eval"),
		pidentCol: Namespace(prefix, "pident"),
		best:      make(map[string]*candidate),
	}
}

// Add offers rec to the fold.
func (r *Resolver) Add(rec HitRecord) error {
	q, ok := rec[QueryColumn]
	if !ok {
		return fmt.Errorf("record has no %s field", QueryColumn)
	}
	eval, err := r.number(rec, r.evalCol)
	if err != nil {
		return err
	}
	pident, err := r.number(rec, r.pidentCol)
	if err != nil {
		return err
	}

	cur, ok := r.best[q]
	if !ok {
		r.order = append(r.order, q)
		r.best[q] = &candidate{rec: rec, eval: eval, pident: pident}
		return nil
	}
	if eval < cur.eval || (eval == cur.eval && pident > cur.pident) {
		cur.rec, cur.eval, cur.pident = rec, eval, pident
	}
	return nil
}

func (r *Resolver) number(rec HitRecord, col string) (float64, error) {
	raw, ok := rec[col]
	if !ok {
		return 0, fmt.Errorf("record has no %s field", col)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", col, raw, err)
	}
	return v, nil
}

// Len returns the number of distinct queries seen.
func (r *Resolver) Len() int { return len(r.order) }

// Best returns the current best hit for query.
func (r *Resolver) Best(query string) (HitRecord, bool) {
	c, ok := r.best[query]
	if !ok {
		return nil, false
	}
	return c.rec, true
}

// Table renders the best hits, one row per query in order of first
// appearance. columns lists every record column; QueryColumn becomes the
// row key and the others the table columns, in order.
func (r *Resolver) Table(columns []string) (*table.Table, error) {
	var valueCols []string
	for _, c := range columns {
		if c != QueryColumn {
			valueCols = append(valueCols, c)
		}
	}
	t, err := table.New(QueryColumn, valueCols...)
	if err != nil {
		return nil, err
	}
	row := make([]table.Cell, len(valueCols))
	for _, q := range r.order {
		rec := r.best[q].rec
		for i, c := range valueCols {
			v, ok := rec[c]
			row[i] = table.Cell{Value: v, Valid: ok}
		}
		if err := t.AddCells(q, row); err != nil {
			return nil, err
		}
	}
	return t, nil
}
