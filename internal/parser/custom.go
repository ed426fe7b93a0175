package parser

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sha1n/pandannotate/internal/table"
	"github.com/sha1n/pandannotate/internal/textio"
)

// CustomSearchType selects the custom table parser.
const CustomSearchType = "custom"

// Custom table option keys.
const (
	OptColumns = "columns"
	OptSep     = "sep"
)

var separatorAliases = map[string]rune{
	"":          '\t',
	"tab":       '\t',
	"comma":     ',',
	"semicolon": ';',
	"pipe":      '|',
	"space":     ' ',
}

// CustomOptions configures a one-value-per-query table.
type CustomOptions struct {
	Prefix string
	// Columns are the raw labels; empty when Header is set.
	Columns []string
	// Header means the first non-blank line holds the labels.
	Header bool
	// Sep is the field separator; ' ' splits on runs of whitespace.
	Sep rune
}

// ParseCustomOptions validates opts. prefix is required, and columns unless
// header is set.
func ParseCustomOptions(opts Options) (CustomOptions, error) {
	var co CustomOptions
	var err error

	if co.Prefix, err = opts.Required("prefix"); err != nil {
		return co, err
	}
	if co.Header, err = opts.Bool(OptHeader); err != nil {
		return co, err
	}
	if !co.Header {
		co.Columns = opts.List(OptColumns)
		if len(co.Columns) == 0 {
			return co, &ConfigurationError{Option: OptColumns, Reason: "is required when header is not set"}
		}
		if err := checkColumns(OptColumns, co.Columns, QueryColumn); err != nil {
			return co, err
		}
	}

	sep := strings.ToLower(opts.String(OptSep))
	if r, ok := separatorAliases[sep]; ok {
		co.Sep = r
	} else if utf8.RuneCountInString(sep) == 1 {
		co.Sep, _ = utf8.DecodeRuneInString(sep)
	} else {
		return co, &ConfigurationError{Option: OptSep, Reason: fmt.Sprintf("must be a single character or one of tab, comma, semicolon, pipe, space: %q", opts[OptSep])}
	}
	return co, nil
}

func (co CustomOptions) split(line string) []string {
	if co.Sep == ' ' {
		return strings.Fields(line)
	}
	return strings.Split(line, string(co.Sep))
}

// Custom imports tables that carry at most one row per query, identified by
// a column named queryname.
type Custom struct {
	logger *slog.Logger
}

// NewCustom creates the custom table parser.
func NewCustom(logger *slog.Logger) *Custom {
	if logger == nil {
		logger = slog.Default()
	}
	return &Custom{logger: logger}
}

// Parse reads path. Short rows are padded with missing cells; a repeated
// query keeps its first row.
func (c *Custom) Parse(ctx context.Context, path string, opts Options) (*table.Table, error) {
	co, err := ParseCustomOptions(opts)
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

	columns := co.Columns
	start := 0
	if co.Header {
		for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
			start++
		}
		if start == len(lines) {
			return nil, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("header row expected")}
		}
		columns = co.split(lines[start])
		for i := range columns {
			columns[i] = strings.TrimSpace(columns[i])
		}
		if err := checkColumns(OptHeader, columns, QueryColumn); err != nil {
			return nil, &ParseError{Path: path, Line: start + 1, Err: err}
		}
		start++
	}

	labels := NamespaceColumns(co.Prefix, columns)
	queryIdx := slices.Index(labels, QueryColumn)
	valueCols := slices.Delete(slices.Clone(labels), queryIdx, queryIdx+1)

	t, err := table.New(QueryColumn, valueCols...)
	if err != nil {
		return nil, err
	}

	dups := 0
	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		fields := co.split(lines[i])
		if len(fields) > len(labels) {
			return nil, &ParseError{Path: path, Line: i + 1, Err: fmt.Errorf("expected %d fields, got %d", len(labels), len(fields))}
		}
		if queryIdx >= len(fields) || fields[queryIdx] == "" {
			return nil, &ParseError{Path: path, Line: i + 1, Err: fmt.Errorf("missing %s", QueryColumn)}
		}

		query := fields[queryIdx]
		if t.HasKey(query) {
			dups++
			continue
		}

		cells := make([]table.Cell, 0, len(valueCols))
		for j := range labels {
			if j == queryIdx {
				continue
			}
			if j < len(fields) {
				cells = append(cells, table.Cell{Value: fields[j], Valid: true})
			} else {
				cells = append(cells, table.Cell{})
			}
		}
		if err := t.AddCells(query, cells); err != nil {
			return nil, err
		}
	}

	if dups > 0 {
		c.logger.Warn("Ignored repeated queries in custom table", "file", path, "count", dups)
	}
	return t, nil
}
