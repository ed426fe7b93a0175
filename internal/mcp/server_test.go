package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/pandannotate/internal/search"
	"github.com/sha1n/pandannotate/internal/table"
)

func TestCreateServer(t *testing.T) {
	cfg := ServerConfig{
		Name:    "test-server",
		Version: "1.0.0",
	}

	server := CreateServer(cfg)
	if server == nil {
		t.Fatal("Expected server to be created")
	}
}

func TestCreateServer_EmptyConfig(t *testing.T) {
	server := CreateServer(ServerConfig{})
	if server == nil {
		t.Fatal("Expected server to be created even with empty config")
	}
}

func newAnnotations(t *testing.T) *search.Service {
	t.Helper()
	tbl, err := table.New(table.DefaultIndexName, "bl_sseqid")
	if err != nil {
		t.Fatalf("table.New failed: %v", err)
	}
	if err := tbl.AddRow("geneA", []string{"sp|P1|KINASE"}); err != nil {
		t.Fatalf("AddRow failed: %v", err)
	}
	svc, err := search.NewService(tbl, "NA", 10)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestCreateServer_ToolsRegistered(t *testing.T) {
	server := CreateServer(ServerConfig{
		Name:        "test-server",
		Version:     "1.0.0",
		Annotations: newAnnotations(t),
	})

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("Server connect failed: %v", err)
	}
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Client connect failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"search_annotations", "get_annotation"} {
		if !names[want] {
			t.Errorf("Expected tool %q to be registered, got %v", want, names)
		}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_annotation",
		Arguments: map[string]any{"queryname": "geneA"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "KINASE") {
		t.Errorf("Unexpected get_annotation result: %+v", result.Content)
	}
}
