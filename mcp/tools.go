package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all sylva MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	s.AddTool(mcp.NewTool("parse_source",
		mcp.WithDescription("Parse source files with the configured grammars and report node counts, syntax errors, and optionally the full syntax tree"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a source file or directory to parse")),
		mcp.WithString("language",
			mcp.Description("Force a language instead of detecting by file extension")),
		mcp.WithBoolean("tree",
			mcp.Description("Include the full syntax tree for each file (default: false)")),
		mcp.WithBoolean("errors_only",
			mcp.Description("Report only files with syntax errors (default: false)")),
		mcp.WithBoolean("recursive",
			mcp.Description("Recursively scan directories (default: true)")),
	), h.HandleParseSource)

	s.AddTool(mcp.NewTool("query_source",
		mcp.WithDescription("Run an s-expression pattern query over source files and return the captured nodes with their positions and text"),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("The s-expression query pattern, e.g. (identifier) @id")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a source file or directory to search")),
		mcp.WithString("language",
			mcp.Description("Force a language instead of detecting by file extension")),
		mcp.WithBoolean("recursive",
			mcp.Description("Recursively scan directories (default: true)")),
	), h.HandleQuerySource)
}
