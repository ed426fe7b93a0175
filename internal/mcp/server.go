package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pandannotate/internal/search"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name        string
	Version     string
	Annotations *search.Service
}

// CreateServer creates and configures the MCP server. The annotation tools
// are registered only when a service is given.
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Annotations != nil {
		search.RegisterSearchTool(s, cfg.Annotations)
		search.RegisterGetTool(s, cfg.Annotations)
	}

	return s
}
