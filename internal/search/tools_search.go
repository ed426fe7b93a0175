package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pandannotate/internal/domain"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query  string `json:"query" jsonschema_description:"Search query matched against annotation values and query names (supports wildcards and phrases)"`
	Source string `json:"source,omitempty" jsonschema_description:"Only match rows annotated by this source prefix (e.g., bl)"`
}

// SearchHandler handles the search MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{
		service: service,
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	index, err := h.service.GetIndex()
	if err != nil {
		return errorResult("Search is not available: %s", err), nil, nil
	}

	searchReq := bleve.NewSearchRequest(h.buildQuery(args))
	searchReq.Size = h.service.MaxResults()
	searchReq.Fields = []string{domain.AnnotationFieldQueryName, domain.AnnotationFieldColumns}
	searchReq.Highlight = bleve.NewHighlight()
	searchReq.Highlight.AddField(domain.AnnotationFieldContent)

	results, err := index.SearchInContext(ctx, searchReq)
	if err != nil {
		return errorResult("Search failed: %s", err), nil, nil
	}

	return h.formatResults(results, args.Query), nil, nil
}

// buildQuery constructs a Bleve query from search arguments.
func (h *SearchHandler) buildQuery(args SearchArgument) query.Query {
	contentQuery := bleve.NewMatchQuery(args.Query)
	contentQuery.SetField(domain.AnnotationFieldContent)

	// An exact query name ranks first
	nameQuery := bleve.NewTermQuery(strings.TrimSpace(args.Query))
	nameQuery.SetField(domain.AnnotationFieldQueryName)
	nameQuery.SetBoost(5.0)

	searchQuery := bleve.NewDisjunctionQuery(contentQuery, nameQuery)

	source := strings.TrimSuffix(strings.TrimSpace(args.Source), "_")
	if source == "" {
		return searchQuery
	}

	sourceQuery := bleve.NewPrefixQuery(source + "_")
	sourceQuery.SetField(domain.AnnotationFieldColumns)
	return bleve.NewConjunctionQuery(searchQuery, sourceQuery)
}

// formatResults formats Bleve search results for MCP response.
func (h *SearchHandler) formatResults(results *bleve.SearchResult, queryStr string) *mcp.CallToolResult {
	if results.Total == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("No annotations found for query: %s", queryStr)},
			},
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d annotated queries for '%s':\n\n", results.Total, queryStr))

	for i, hit := range results.Hits {
		name := hit.ID
		if val, ok := hit.Fields[domain.AnnotationFieldQueryName].(string); ok {
			name = val
		}

		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, name))
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n\n", hit.Score))

		if fragments, ok := hit.Fragments[domain.AnnotationFieldContent]; ok && len(fragments) > 0 {
			sb.WriteString("```\n")
			for _, fragment := range fragments {
				sb.WriteString(fragment)
				sb.WriteString("\n")
			}
			sb.WriteString("```\n")
		}

		sb.WriteString("\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", results.Total-uint64(len(results.Hits))))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_annotations",
		Description: "Full-text search over the rows of an annotation table",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
