// Package search indexes a finished annotation table for full-text lookup.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/sha1n/pandannotate/internal/domain"
	"github.com/sha1n/pandannotate/internal/table"
)

const (
	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 500

	// MaxBatchBytes is the maximum bytes per batch (10MB)
	MaxBatchBytes = 10 * 1024 * 1024
)

// CreateIndexMapping creates the Bleve index mapping for annotation documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Content - analyzed for full-text search
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.AnnotationFieldContent, contentField)

	// QueryName - keyword, stored
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = keyword.Name
	nameField.Store = true
	docMapping.AddFieldMappingsAt(domain.AnnotationFieldQueryName, nameField)

	// Columns - keyword, used for source prefix filters
	colField := bleve.NewTextFieldMapping()
	colField.Analyzer = keyword.Name
	colField.Store = true
	docMapping.AddFieldMappingsAt(domain.AnnotationFieldColumns, colField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.AnnotationFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// NewDocument builds the index document for one row. Missing cells are
// left out of both Columns and Content.
func NewDocument(columns []string, key string, row []table.Cell) domain.AnnotationDocument {
	doc := domain.AnnotationDocument{
		ID:        key,
		QueryName: key,
		Columns:   make([]string, 0, len(row)),
	}

	var sb strings.Builder
	for i, cell := range row {
		if !cell.Valid {
			continue
		}
		doc.Columns = append(doc.Columns, columns[i])
		sb.WriteString(columns[i])
		sb.WriteString(": ")
		sb.WriteString(cell.Value)
		sb.WriteString("\n")
	}
	doc.Content = sb.String()
	return doc
}

// BuildIndex creates an in-memory index holding one document per row of t.
// Returns the index and the number of documents indexed.
func BuildIndex(t *table.Table) (bleve.Index, int, error) {
	index, err := bleve.NewMemOnly(CreateIndexMapping())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create index: %w", err)
	}

	count, err := indexRows(index, t)
	if err != nil {
		_ = index.Close()
		return nil, count, err
	}
	return index, count, nil
}

func indexRows(index bleve.Index, t *table.Table) (int, error) {
	columns := t.Columns()
	batch := index.NewBatch()
	batchSize := 0
	batchBytes := 0
	totalIndexed := 0

	for _, key := range t.Keys() {
		row, _ := t.Row(key)
		doc := NewDocument(columns, key, row)

		if err := batch.Index(doc.ID, doc); err != nil {
			return totalIndexed, fmt.Errorf("index %s: %w", key, err)
		}
		batchSize++
		batchBytes += len(doc.Content)

		// Flush batch if needed
		if batchSize >= MaxBatchSize || batchBytes >= MaxBatchBytes {
			if err := index.Batch(batch); err != nil {
				return totalIndexed, fmt.Errorf("batch index failed: %w", err)
			}
			totalIndexed += batchSize
			batch = index.NewBatch()
			batchSize = 0
			batchBytes = 0
		}
	}

	if batchSize > 0 {
		if err := index.Batch(batch); err != nil {
			return totalIndexed, fmt.Errorf("final batch index failed: %w", err)
		}
		totalIndexed += batchSize
	}

	return totalIndexed, nil
}
