package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sylva-dev/sylva/domain"
	"github.com/sylva-dev/sylva/internal/config"
	"github.com/sylva-dev/sylva/service"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	cfg       *config.Config
	languages *service.LanguageManager
	reader    *service.FileReaderImpl
}

// NewHandlerSet constructs a handler set over the given config
func NewHandlerSet(cfg *config.Config) *HandlerSet {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &HandlerSet{
		cfg:       cfg,
		languages: service.NewLanguageManager(cfg),
		reader:    service.NewFileReader(),
	}
}

// HandleParseSource handles the parse_source tool
func (h *HandlerSet) HandleParseSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	recursive := boolArg(args, "recursive", true)
	showTree := boolArg(args, "tree", false)
	errorsOnly := boolArg(args, "errors_only", false)
	language, _ := args["language"].(string)

	files, err := h.reader.CollectSourceFiles([]string{path}, recursive, nil, nil, h.languages.Extensions())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect files: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultError("no source files found"), nil
	}

	req := &domain.ParseRequest{
		Paths:      []string{path},
		Language:   language,
		ShowTree:   showTree,
		ErrorsOnly: errorsOnly,
	}

	svc := service.NewParseService(h.languages, h.reader, nil,
		h.cfg.Parse.MaxConcurrency, time.Duration(h.cfg.Parse.TimeoutSeconds)*time.Second)
	response, err := svc.Parse(ctx, req, files)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}

	out, err := service.EncodeJSON(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// HandleQuerySource handles the query_source tool
func (h *HandlerSet) HandleQuerySource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	pattern, ok := args["pattern"].(string)
	if !ok || pattern == "" {
		return mcp.NewToolResultError("pattern parameter is required and must be a string"), nil
	}
	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	recursive := boolArg(args, "recursive", true)
	language, _ := args["language"].(string)

	files, err := h.reader.CollectSourceFiles([]string{path}, recursive, nil, nil, h.languages.Extensions())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to collect files: %v", err)), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultError("no source files found"), nil
	}

	req := &domain.QueryRequest{
		Pattern:  pattern,
		Paths:    []string{path},
		Language: language,
	}

	svc := service.NewQueryService(h.languages, h.reader, nil,
		h.cfg.Parse.MaxConcurrency, time.Duration(h.cfg.Parse.TimeoutSeconds)*time.Second)
	response, err := svc.Query(ctx, req, files)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	out, err := service.EncodeJSON(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func boolArg(args map[string]interface{}, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
