package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sha1n/pandannotate/internal/control"
	"github.com/sha1n/pandannotate/internal/textio"
)

// SummaryVersion is the current summary schema version
const SummaryVersion = 1

// Source statuses.
const (
	StatusMerged  = "merged"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// SourceResult is the outcome of one declared source.
type SourceResult struct {
	Filename   string `json:"filename"`
	SearchType string `json:"searchtype"`
	Prefix     string `json:"prefix,omitempty"`
	Status     string `json:"status"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	Error      string `json:"error,omitempty"`
}

// Summary describes a run. The process exits 0 even when sources were
// skipped or failed; automation should read the counts from here.
type Summary struct {
	Version    int                     `json:"version"`
	FinishedAt time.Time               `json:"finished_at"`
	Output     string                  `json:"output,omitempty"`
	Universe   int                     `json:"universe"`
	Queries    int                     `json:"queries"`
	Columns    int                     `json:"columns"`
	Sources    []SourceResult          `json:"sources"`
	Malformed  []control.MalformedLine `json:"malformed_lines,omitempty"`
	Duplicates []control.Duplicate     `json:"duplicate_declarations,omitempty"`
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{
		Version: SummaryVersion,
		Sources: make([]SourceResult, 0),
	}
}

// Add appends a source result.
func (s *Summary) Add(r SourceResult) {
	s.Sources = append(s.Sources, r)
}

// Counts returns the number of merged, skipped and failed sources.
func (s *Summary) Counts() (merged, skipped, failed int) {
	for _, r := range s.Sources {
		switch r.Status {
		case StatusMerged:
			merged++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return merged, skipped, failed
}

// Partial reports whether any source or control line was left out.
func (s *Summary) Partial() bool {
	_, skipped, failed := s.Counts()
	return skipped > 0 || failed > 0 || len(s.Malformed) > 0
}

// Log writes one line with the totals. Partial runs log at WARN.
func (s *Summary) Log(logger *slog.Logger) {
	merged, skipped, failed := s.Counts()
	level := slog.LevelInfo
	if s.Partial() {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "Annotation table complete",
		"queries", s.Queries,
		"columns", s.Columns,
		"merged", merged,
		"skipped", skipped,
		"failed", failed,
		"malformed_lines", len(s.Malformed),
	)
}

// Write encodes the summary as indented JSON.
func (s *Summary) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Save writes the summary to path atomically.
func (s *Summary) Save(ctx context.Context, path string, lockTimeout time.Duration) error {
	if err := textio.WriteFileAtomic(ctx, path, lockTimeout, s.Write); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}
