package parser

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sha1n/pandannotate/internal/table"
	"github.com/sha1n/pandannotate/internal/textio"
)

// DefaultBlastColumns is the column layout of BLAST tabular output
// (-outfmt 6) with the query column named queryname.
var DefaultBlastColumns = []string{
	QueryColumn,
	"sseqid",
	"pident",
	"length",
	"mismatch",
	"gapopen",
	"qstart",
	"qend",
	"sstart",
	"send",
	"eval",
	"bitscore",
}

// BlastPrograms are the searchtypes served by the BLAST parser.
var BlastPrograms = []string{"blastn", "blastp", "blastx", "tblastn", "tblastx"}

// compositeQueryPrograms write the query as <database>::<queryid>.
var compositeQueryPrograms = []string{"blastx", "blastp"}

// DefaultEnrichDatabase is used when enrich is set without database.
const DefaultEnrichDatabase = "swissprot"

// BLAST option keys.
const (
	OptProgram  = "program"
	OptHeader   = "header"
	OptEnrich   = "enrich"
	OptDatabase = "database"
)

// BlastOptions is the validated configuration of one BLAST source.
type BlastOptions struct {
	Prefix     string
	SearchType string
	// Program selects the record layout; defaults to SearchType.
	Program string
	// Columns are the raw column names, QueryColumn included.
	Columns  []string
	Enrich   bool
	Database string
}

// ParseBlastOptions validates opts. Prefix and searchtype are required.
func ParseBlastOptions(opts Options) (BlastOptions, error) {
	var bo BlastOptions
	var err error

	if bo.Prefix, err = opts.Required("prefix"); err != nil {
		return bo, err
	}
	if bo.SearchType, err = opts.Required("searchtype"); err != nil {
		return bo, err
	}
	bo.Program = strings.ToLower(opts.String(OptProgram))
	if bo.Program == "" {
		bo.Program = strings.ToLower(bo.SearchType)
	}

	bo.Columns = DefaultBlastColumns
	if _, ok := opts[OptHeader]; ok {
		bo.Columns = opts.List(OptHeader)
	}
	if err := checkColumns(OptHeader, bo.Columns, QueryColumn, "eval", "pident"); err != nil {
		return bo, err
	}

	if bo.Enrich, err = opts.Bool(OptEnrich); err != nil {
		return bo, err
	}
	bo.Database = opts.String(OptDatabase)
	if bo.Database == "" {
		bo.Database = DefaultEnrichDatabase
	}
	if bo.Enrich && !slices.Contains(bo.Columns, "sseqid") {
		return bo, &ConfigurationError{Option: OptEnrich, Reason: "requires an sseqid column"}
	}
	return bo, nil
}

// Labels returns the namespaced column names.
func (bo BlastOptions) Labels() []string {
	return NamespaceColumns(bo.Prefix, bo.Columns)
}

// HitColumn is the namespaced subject id column.
func (bo BlastOptions) HitColumn() string {
	return Namespace(bo.Prefix, "sseqid")
}

// CompositeQuery reports whether query tokens carry a database:: prefix.
func (bo BlastOptions) CompositeQuery() bool {
	return slices.Contains(compositeQueryPrograms, bo.Program)
}

// TrailingQueryID returns the part of token after the last "::".
func TrailingQueryID(token string) string {
	if i := strings.LastIndex(token, "::"); i >= 0 {
		return token[i+2:]
	}
	return token
}

// Blast parses tabular similarity-search output and keeps the best hit per
// query.
type Blast struct {
	enricher Enricher
	logger   *slog.Logger
}

// NewBlast creates the BLAST parser. enricher may be nil.
func NewBlast(enricher Enricher, logger *slog.Logger) *Blast {
	if logger == nil {
		logger = slog.Default()
	}
	return &Blast{enricher: enricher, logger: logger}
}

// Parse reads path fully, resolves the best hit per query and optionally
// enriches the result.
func (b *Blast) Parse(ctx context.Context, path string, opts Options) (*table.Table, error) {
	bo, err := ParseBlastOptions(opts)
	if err != nil {
		return nil, err
	}

	lines, err := textio.ReadLines(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := bo.Labels()
	queryIdx := slices.Index(labels, QueryColumn)
	res := NewResolver(bo.Prefix)
	hits := 0

	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < len(labels) {
			return nil, &ParseError{Path: path, Line: i + 1, Err: fmt.Errorf("expected %d fields, got %d", len(labels), len(fields))}
		}
		if bo.CompositeQuery() {
			fields[queryIdx] = TrailingQueryID(fields[queryIdx])
		}

		rec := make(HitRecord, len(labels))
		for j, l := range labels {
			rec[l] = fields[j]
		}
		if err := res.Add(rec); err != nil {
			return nil, &ParseError{Path: path, Line: i + 1, Err: err}
		}
		hits++
	}

	t, err := res.Table(labels)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("Resolved best hits", "file", path, "hits", hits, "queries", res.Len())

	if bo.Enrich {
		return b.enrich(t, bo)
	}
	return t, nil
}

func (b *Blast) enrich(t *table.Table, bo BlastOptions) (*table.Table, error) {
	if b.enricher == nil {
		return nil, ErrEnricherUnavailable
	}

	before := make(map[string]bool, t.Width())
	for _, c := range t.Columns() {
		before[c] = true
	}

	out, err := b.enricher.Enrich(t, bo.HitColumn(), bo.Database)
	if err != nil {
		return nil, fmt.Errorf("enrich %s: %w", bo.Database, err)
	}
	for _, c := range out.Columns() {
		if before[c] {
			continue
		}
		if err := out.RenameColumn(c, Namespace(bo.Prefix, c)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
