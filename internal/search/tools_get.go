package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetArgument defines lookup parameters.
type GetArgument struct {
	QueryName string `json:"queryname" jsonschema_description:"Query identifier as it appears in the reference FASTA"`
	Source    string `json:"source,omitempty" jsonschema_description:"Only show columns of this source prefix (e.g., bl)"`
}

// GetHandler handles the row lookup MCP tool.
type GetHandler struct {
	service *Service
}

// NewGetHandler creates a new lookup handler.
func NewGetHandler(service *Service) *GetHandler {
	return &GetHandler{
		service: service,
	}
}

// Handle returns every column of one row, missing cells shown with the
// table's missing token.
func (h *GetHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args GetArgument) (*mcp.CallToolResult, any, error) {
	name := strings.TrimSpace(args.QueryName)
	if name == "" {
		return errorResult("Query name cannot be empty"), nil, nil
	}
	if !h.service.IsReady() {
		return errorResult("Lookup is not available: service closed"), nil, nil
	}

	t := h.service.Table()
	row, ok := t.Row(name)
	if !ok {
		return errorResult("Query not found: %s", name), nil, nil
	}

	prefix := ""
	if source := strings.TrimSuffix(strings.TrimSpace(args.Source), "_"); source != "" {
		prefix = source + "_"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s**: `%s`\n\n", t.IndexName(), name))
	sb.WriteString("| column | value |\n|---|---|\n")

	shown := 0
	for i, col := range t.Columns() {
		if !strings.HasPrefix(col, prefix) {
			continue
		}
		value := h.service.MissingToken()
		if row[i].Valid {
			value = row[i].Value
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", col, escapeCell(value)))
		shown++
	}

	if shown == 0 && prefix != "" {
		return errorResult("No columns for source %q", args.Source), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}, nil, nil
}

// escapeCell keeps pipes in hit identifiers from breaking the markdown table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// GetToolDefinition returns the MCP tool definition.
func (h *GetHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_annotation",
		Description: "Show all annotation columns of one query",
	}
}

// RegisterGetTool registers the lookup tool with an MCP server.
func RegisterGetTool(server *mcp.Server, service *Service) {
	handler := NewGetHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
