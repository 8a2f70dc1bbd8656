package mcp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/opsimtools/sferror/internal"
	mcp_internal "github.com/opsimtools/sferror/internal/mcp"
	"github.com/opsimtools/sferror/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *internal.Config {
	t.Helper()
	return &internal.Config{
		DBDir:   t.TempDir(),
		OutDir:  t.TempDir(),
		Nside:   16,
		Bins:    5,
		BinLo:   1.0,
		BinHi:   365.0,
		AllGaps: true,
		Workers: 2,
		Backend: schema.SQLiteBackend,
	}
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := tool.Handler(t.Context(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func TestMCPServerHandlers(t *testing.T) {
	cfg := baseConfig(t)
	s := mcp_internal.NewMCPServer(cfg)

	t.Run("list_runs empty directory", func(t *testing.T) {
		res := callTool(t, s, "list_runs", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "no OpSim databases")
	})

	t.Run("list_runs finds databases", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"baseline_v3.4_10yrs.db", "roman_v3.4_10yrs.db"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
		}

		res := callTool(t, s, "list_runs", map[string]any{"db_dir": dir})
		require.False(t, res.IsError)
		text := res.Content[0].(mcp.TextContent).Text
		assert.Contains(t, text, "baseline_v3.4_10yrs")
		assert.Contains(t, text, "roman_v3.4_10yrs")
	})

	t.Run("get_summary empty store", func(t *testing.T) {
		res := callTool(t, s, "get_summary", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "no summary statistics")
	})

	t.Run("run_metric missing run", func(t *testing.T) {
		res := callTool(t, s, "run_metric", map[string]any{
			"band": "u",
			"mag":  24.15,
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "run is required")
	})

	t.Run("run_metric missing mag", func(t *testing.T) {
		res := callTool(t, s, "run_metric", map[string]any{
			"run":  "baseline",
			"band": "u",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "mag is required")
	})

	t.Run("run_metric magnitude zero is legal", func(t *testing.T) {
		res := callTool(t, s, "run_metric", map[string]any{
			"run":  "no_such_run",
			"band": "u",
			"mag":  0.0,
		})
		// Evaluation fails on the unknown run, but mag 0 must get past
		// the argument checks.
		assert.True(t, res.IsError)
		assert.NotContains(t, res.Content[0].(mcp.TextContent).Text, "mag is required")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "metric evaluation failed")
	})

	t.Run("run_metric invalid band", func(t *testing.T) {
		res := callTool(t, s, "run_metric", map[string]any{
			"run":  "baseline",
			"band": "q",
			"mag":  24.15,
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid band")
	})

	t.Run("run_metric invalid nside", func(t *testing.T) {
		res := callTool(t, s, "run_metric", map[string]any{
			"run":   "baseline",
			"band":  "u",
			"mag":   24.15,
			"nside": 48.0,
		})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "power of two")
	})

	t.Run("run_metric unknown run", func(t *testing.T) {
		res := callTool(t, s, "run_metric", map[string]any{
			"run":  "no_such_run",
			"band": "u",
			"mag":  24.15,
		})
		assert.True(t, res.IsError)
	})
}
