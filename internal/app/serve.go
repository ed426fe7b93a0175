package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pandannotate/internal/config"
	mcputil "github.com/sha1n/pandannotate/internal/mcp"
	"github.com/sha1n/pandannotate/internal/search"
	"github.com/spf13/pflag"
)

// ServeParams contains dependencies for the annotation explorer
type ServeParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	CreateServer      func(*config.Settings, string) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
	LogOutput         io.Writer     // Optional: defaults to stderr
}

// DefaultServeParams returns production dependencies
func DefaultServeParams() ServeParams {
	return ServeParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateServeSettings,
		CreateServer:  CreateMCPServer,
	}
}

// RunServe serves an annotation table over MCP until ctx is done or the
// client disconnects.
func RunServe(ctx context.Context, params ServeParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(settings, params.LogOutput)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Starting pandannotate annotation explorer", "version", version)
	config.LogWithLogger(settings, logger)

	mcpServer, cleanup, err := params.CreateServer(settings, version)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Use custom transport if provided (for testing), otherwise use stdio
	transport := params.CustomIOTransport
	if transport == nil {
		transport = &mcp.StdioTransport{}
	}
	return mcpServer.Run(ctx, transport)
}

// CreateMCPServer loads the configured table and creates the MCP server
// with the annotation tools registered.
func CreateMCPServer(settings *config.Settings, version string) (*mcp.Server, func(), error) {
	svc, err := search.LoadService(settings.Serve.Table, settings.MissingToken, settings.Serve.MaxResults)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load annotation table: %w", err)
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close annotation index", "error", err)
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:        "pandannotate",
		Version:     version,
		Annotations: svc,
	})

	return server, cleanup, nil
}
