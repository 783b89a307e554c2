package testutil

import (
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/mapmcp/pkg/dataset"
)

var (
	storeOnce sync.Once
	store     *dataset.Store
	storeErr  error
)

// Store returns the embedded dataset store, loaded once per test binary.
// The store is read-only so tests may share it.
func Store(t testing.TB) *dataset.Store {
	t.Helper()
	storeOnce.Do(func() {
		store, storeErr = dataset.LoadEmbedded()
	})
	if storeErr != nil {
		t.Fatalf("load embedded datasets: %v", storeErr)
	}
	return store
}

// CallToolRequest builds a tool call the way an MCP client would send it.
func CallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// ResultText returns the text of the first content item of a tool result.
func ResultText(t testing.TB, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("nil tool result")
	}
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}
