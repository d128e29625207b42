// Package mcp implements the Model Context Protocol server, exposing the
// dock host to LLMs. Assistants can list docks, search the command palette,
// run actions, route deep links and post notifications through a
// standardised protocol.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jpl-au/dock/internal/host"
	"github.com/jpl-au/dock/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is advertised to clients for capability negotiation.
const Version = "1.0.0"

// Serve starts the MCP server over stdio for the given host.
// Uses stdio transport for compatibility with Claude Desktop and other MCP clients.
//
// Design: the host is built and its docks loaded by the caller, so the
// server only exposes what is already running. Dock-contributed tools are
// registered alongside the built-in ones and run on their dock's runner.
func Serve(h *host.Host) error {
	// Log to stderr; stdout is reserved for MCP JSON-RPC messages
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	s := NewServer(h)
	slog.Info("dock MCP server ready",
		"version", Version,
		"sdk", version.SDK,
		"docks", len(h.Docks()),
		"transport", "stdio")

	err := server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		slog.Info("server stopped")
		return nil
	}
	return err
}

// NewServer builds the MCP server without starting a transport.
func NewServer(h *host.Host) *server.MCPServer {
	s := server.NewMCPServer(
		"dock",
		Version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	hd := &handlers{h: h}
	registerResources(s, hd)
	registerTools(s, hd)

	for _, t := range h.Tools() {
		s.AddTool(t.Tool, server.ToolHandlerFunc(t.Handler))
		slog.Debug("registered dock tool", "tool", t.Tool.Name)
	}
	return s
}

// handlers provides MCP request handlers with access to the host.
type handlers struct {
	h *host.Host
}

// registerResources adds URI-based access to dock descriptions.
func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			ResourcePrefix+"{id}",
			"Dock",
			mcp.WithTemplateDescription("Describe a loaded dock and its palette contributions"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		h.readDock,
	)
}

// registerTools exposes host operations as MCP tools for LLM invocation.
func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("dock_list",
			mcp.WithDescription("List loaded docks with their state and capabilities"),
		),
		h.listDocks,
	)

	s.AddTool(
		mcp.NewTool("dock_search",
			mcp.WithDescription("Search the command palette. Results are grouped by category in display order."),
			mcp.WithString("query", mcp.Description("Search text (empty lists everything)")),
			mcp.WithString("drill", mcp.Description("Drill-down target as <dock-id>/<action-id>")),
		),
		h.search,
	)

	s.AddTool(
		mcp.NewTool("dock_run",
			mcp.WithDescription("Run a palette item found by dock_search"),
			mcp.WithString("target", mcp.Required(), mcp.Description("Item as <dock-id>/<action-id>")),
			mcp.WithString("query", mcp.Description("Query that produced the item; needed for live results")),
		),
		h.run,
	)

	s.AddTool(
		mcp.NewTool("dock_activate",
			mcp.WithDescription("Focus a dock. The previously focused dock resigns."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Dock identifier")),
		),
		h.activate,
	)

	s.AddTool(
		mcp.NewTool("dock_open",
			mcp.WithDescription("Route a dock:// deep link to its dock"),
			mcp.WithString("url", mcp.Required(), mcp.Description("Link, e.g. dock://com.jpl.notes/new?text=hi")),
		),
		h.open,
	)

	s.AddTool(
		mcp.NewTool("dock_publish",
			mcp.WithDescription("Post a notification on the dock bus"),
			mcp.WithString("topic", mcp.Required(), mcp.Description("Notification name")),
			mcp.WithString("payload", mcp.Description("Payload text")),
		),
		h.publish,
	)

	s.AddTool(
		mcp.NewTool("dock_keys",
			mcp.WithDescription("List key bindings of every dock"),
		),
		h.keys,
	)

	s.AddTool(
		mcp.NewTool("dock_press",
			mcp.WithDescription("Press a key chord in the focused dock, e.g. cmd+shift+n"),
			mcp.WithString("chord", mcp.Required(), mcp.Description("Key chord")),
		),
		h.press,
	)

	s.AddTool(
		mcp.NewTool("dock_config_get",
			mcp.WithDescription("Get a configuration value"),
			mcp.WithString("key", mcp.Description("Config key (host.dev_mode, search.provider_timeout, ...) or empty for all")),
		),
		h.configGet,
	)

	s.AddTool(
		mcp.NewTool("dock_config_set",
			mcp.WithDescription("Set a configuration value. Takes effect on the next start."),
			mcp.WithString("key", mcp.Required(), mcp.Description("Config key")),
			mcp.WithString("value", mcp.Required(), mcp.Description("Value to set")),
		),
		h.configSet,
	)

	s.AddTool(
		mcp.NewTool("dock_guide",
			mcp.WithDescription("Get help/guide content for dock commands"),
			mcp.WithString("topic", mcp.Description("Guide topic (e.g., 'search', 'keys') or empty for index")),
		),
		h.getGuide,
	)
}
