package main

import (
	"github.com/mbenaiss/lexchat/config"
	"github.com/mbenaiss/lexchat/logging"
	"github.com/mbenaiss/lexchat/mcp"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.LogLevel, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	client := mcp.NewClient(cfg.BridgeURL, cfg.RequestTimeout)
	mcpServer := mcp.NewMCPServer("Lexchat MCP API", "1.0.0", client)
	if err := mcp.StartMCPServer(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start MCP server")
	}
}
