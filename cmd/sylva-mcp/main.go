package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sylva-dev/sylva/internal/config"
	"github.com/sylva-dev/sylva/internal/version"
	"github.com/sylva-dev/sylva/mcp"
)

const serverName = "sylva"

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	// MCP uses stdout for JSON-RPC, logging goes to stderr
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(cfg))

	log.Printf("Starting %s MCP server %s\n", serverName, version.Short())
	log.Println("Registered tools:")
	log.Println("  - parse_source: Parse source files and report syntax trees")
	log.Println("  - query_source: Run structural pattern queries")

	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
