package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/sha1n/pandannotate/internal/table"
	"github.com/sha1n/pandannotate/internal/textio"
)

// Service holds an annotation table and its search index.
type Service struct {
	table      *table.Table
	index      bleve.Index
	missing    string
	maxResults int
	mu         sync.RWMutex
}

// NewService indexes t. Results per search are capped at maxResults.
func NewService(t *table.Table, missing string, maxResults int) (*Service, error) {
	if t == nil {
		return nil, fmt.Errorf("table cannot be nil")
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", maxResults)
	}

	index, count, err := BuildIndex(t)
	if err != nil {
		return nil, err
	}
	slog.Info("Annotation index ready", "documents", count, "columns", t.Width())

	return &Service{
		table:      t,
		index:      index,
		missing:    missing,
		maxResults: maxResults,
	}, nil
}

// LoadService reads an annotation table written by a build run and
// indexes it.
func LoadService(path, missing string, maxResults int) (svc *Service, err error) {
	f, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	t, err := table.ReadTSV(f, missing)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return NewService(t, missing, maxResults)
}

// IsReady returns true until the service is closed.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// GetIndex returns the annotation index.
func (s *Service) GetIndex() (bleve.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return nil, fmt.Errorf("index closed")
	}
	return s.index, nil
}

// Table returns the indexed table.
func (s *Service) Table() *table.Table {
	return s.table
}

// MissingToken returns the token shown for missing cells.
func (s *Service) MissingToken() string {
	return s.missing
}

// MaxResults returns the search result cap.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// Close releases the index.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		s.index = nil
	}
	return nil
}
