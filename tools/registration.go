package tools

import (
	"github.com/jessielw/deluge-web-client/config"
	"github.com/jessielw/deluge-web-client/deluge"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterAll registers all tools with the MCP server.
func RegisterAll(s *server.MCPServer, cfg *config.Config, client *deluge.Client) {
	d := newDelugeTools(cfg, client)
	registerTorrentTools(s, d)
	registerLabelTools(s, d)
	registerDaemonTools(s, d)
}
