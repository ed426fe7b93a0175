// Package parser turns one declared source file into a per-source table of
// namespaced columns indexed by query identifier.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sha1n/pandannotate/internal/table"
)

// QueryColumn is the query identifier column. It is never namespaced.
const QueryColumn = table.DefaultIndexName

// Parser converts a source file plus its declared options into a table with
// one row per query.
type Parser interface {
	Parse(ctx context.Context, path string, opts Options) (*table.Table, error)
}

// Func adapts a function to the Parser interface.
type Func func(ctx context.Context, path string, opts Options) (*table.Table, error)

// Parse calls f.
func (f Func) Parse(ctx context.Context, path string, opts Options) (*table.Table, error) {
	return f(ctx, path, opts)
}

// Enricher adds cross-reference columns keyed on a hit identifier column.
// New columns must not be namespaced; the calling parser prefixes them.
type Enricher interface {
	Enrich(t *table.Table, hitColumn, database string) (*table.Table, error)
}

// ErrEnricherUnavailable is returned when enrichment is requested but no
// enricher was configured.
var ErrEnricherUnavailable = errors.New("enrichment requested but no enricher is configured")

// ConfigurationError reports a missing or invalid parser option.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: option %q %s", e.Option, e.Reason)
}

func missingOption(name string) error {
	return &ConfigurationError{Option: name, Reason: "is required"}
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ParseError locates a failure inside a source file.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options is the free-form option bag of a declaration.
type Options map[string]string

// String returns the whitespace-trimmed value of key.
func (o Options) String(key string) string {
	return strings.TrimSpace(o[key])
}

// Required returns the value of key or a ConfigurationError when it is
// absent or blank.
func (o Options) Required(key string) (string, error) {
	v := o.String(key)
	if v == "" {
		return "", missingOption(key)
	}
	return v, nil
}

// Bool interprets key as a flag. Absent or blank is false; "yes" and "on"
// are accepted next to the strconv.ParseBool forms.
func (o Options) Bool(key string) (bool, error) {
	v := strings.ToLower(o.String(key))
	switch v {
	case "":
		return false, nil
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &ConfigurationError{Option: key, Reason: fmt.Sprintf("is not a boolean: %q", o[key])}
	}
	return b, nil
}

// List splits a comma-separated option, trimming entries and dropping
// empty ones.
func (o Options) List(key string) []string {
	raw := o.String(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Namespace prefixes column with prefix, leaving the query column as is.
func Namespace(prefix, column string) string {
	if column == QueryColumn {
		return column
	}
	return prefix + "_" + column
}

// NamespaceColumns applies Namespace to every column.
func NamespaceColumns(prefix string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = Namespace(prefix, c)
	}
	return out
}

// checkColumns validates a column list: unique names including every name
// in required.
func checkColumns(option string, columns []string, required ...string) error {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return &ConfigurationError{Option: option, Reason: fmt.Sprintf("repeats column %q", c)}
		}
		seen[c] = true
	}
	for _, r := range required {
		if !seen[r] {
			return &ConfigurationError{Option: option, Reason: fmt.Sprintf("lacks required column %q", r)}
		}
	}
	return nil
}
