package domain

// AnnotationDocument represents one row of a finished annotation table.
// It is the primary data structure stored in the Bleve search index.
type AnnotationDocument struct {
	// ID is the query identifier, unique within a table.
	ID string `json:"id"`

	// QueryName is the row identifier as written in the queryname column.
	QueryName string `json:"queryname"`

	// Columns lists the namespaced columns that hold a value for this row.
	// Example: ["bl_sseqid", "bl_eval", "pfam_hmm"]
	Columns []string `json:"columns"`

	// Content is one "column: value" line per present cell, used for
	// full-text search and result snippets.
	Content string `json:"content"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	AnnotationFieldID        = "id"
	AnnotationFieldQueryName = "queryname"
	AnnotationFieldColumns   = "columns"
	AnnotationFieldContent   = "content"
)
