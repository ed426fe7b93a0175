// Package merge folds the per-source best-hit tables into the master
// annotation table.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sha1n/pandannotate/internal/control"
	"github.com/sha1n/pandannotate/internal/fasta"
	"github.com/sha1n/pandannotate/internal/parser"
	"github.com/sha1n/pandannotate/internal/table"
)

// Resolver maps a searchtype to its parser.
type Resolver interface {
	Resolve(searchType string) (parser.Parser, error)
}

// Engine merges declared sources into a master table, one at a time.
type Engine struct {
	parsers Resolver
	logger  *slog.Logger
}

// NewEngine creates an engine. A nil logger uses slog.Default.
func NewEngine(parsers Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{parsers: parsers, logger: logger}
}

// Initialize returns a table with one row per universe member and no
// columns.
func (e *Engine) Initialize(u *fasta.Universe) *table.Table {
	return table.FromKeys(table.DefaultIndexName, u.IDs())
}

// MergeSource parses the declared source and joins its table into master.
// On error master is returned unchanged next to the error.
func (e *Engine) MergeSource(ctx context.Context, master *table.Table, decl control.Declaration) (*table.Table, *table.Table, error) {
	if strings.TrimSpace(decl.SearchType) == "" {
		return master, nil, &parser.ConfigurationError{Option: control.OptSearchType, Reason: "is required"}
	}
	p, err := e.parsers.Resolve(decl.SearchType)
	if err != nil {
		return master, nil, err
	}

	src, err := p.Parse(ctx, decl.Filename, parser.Options(decl.Options))
	if err != nil {
		return master, nil, err
	}

	joined, err := master.Join(src)
	if err != nil {
		return master, nil, fmt.Errorf("join %s: %w", decl.Filename, err)
	}
	return joined, src, nil
}

// Finalize labels the identifier column. The table is ready to write.
func (e *Engine) Finalize(master *table.Table) *table.Table {
	master.SetIndexName(table.DefaultIndexName)
	return master
}

// Run builds the master table from the universe and every declaration in
// spec order. A failing source is logged, recorded in the summary and
// skipped; only context cancellation stops the run early.
func (e *Engine) Run(ctx context.Context, u *fasta.Universe, spec *control.Spec) (*table.Table, *Summary, error) {
	summary := NewSummary()
	summary.Universe = u.Len()

	for _, m := range spec.Malformed() {
		e.logger.Warn("Skipping malformed control line", "line", m.Line, "text", m.Text, "reason", m.Reason)
		summary.Malformed = append(summary.Malformed, m)
	}
	for _, d := range spec.Duplicates() {
		e.logger.Warn("Duplicate control declaration replaces earlier one", "file", d.Filename, "line", d.Line, "previous_line", d.Previous)
		summary.Duplicates = append(summary.Duplicates, d)
	}

	master := e.Initialize(u)
	for _, decl := range spec.Declarations() {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		result := SourceResult{
			Filename:   decl.Filename,
			SearchType: decl.SearchType,
			Prefix:     decl.Prefix(),
		}
		e.logger.Debug("Merging source", "file", decl.Filename, "searchtype", decl.SearchType, "prefix", decl.Prefix())

		var src *table.Table
		var err error
		master, src, err = e.MergeSource(ctx, master, decl)
		switch {
		case err == nil:
			result.Status = StatusMerged
			result.Rows = src.Len()
			result.Columns = src.Width()
			e.logger.Info("Merged source", "file", decl.Filename, "queries", src.Len(), "columns", src.Width())
		case ctx.Err() != nil:
			return nil, summary, ctx.Err()
		case parser.IsConfigurationError(err):
			result.Status = StatusSkipped
			result.Error = err.Error()
			e.logger.Warn("Cannot parse source, skipping", "file", decl.Filename, "searchtype", decl.SearchType, "error", err)
		default:
			result.Status = StatusFailed
			result.Error = err.Error()
			e.logger.Error("Unable to parse source", "file", decl.Filename, "searchtype", decl.SearchType, "error", err)
		}
		summary.Add(result)
	}

	master = e.Finalize(master)
	summary.Queries = master.Len()
	summary.Columns = master.Width()
	return master, summary, nil
}
