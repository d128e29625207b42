// tools_config.go implements MCP tools for configuration management.
//
// Separated because config operations modify persistent settings rather
// than the running host.
//
// Design: the running host keeps the configuration it started with. A
// changed timeout or key override takes effect when the host next starts,
// and the tool result says so.

package mcp

import (
	"context"
	"fmt"

	"github.com/jpl-au/dock/internal/config"
	"github.com/jpl-au/dock/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
)

// configGet handles dock_config_get tool calls.
func (h *handlers) configGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Event("mcp:config_get", "get").Write(err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	key := getString(req, "key", "")
	if key == "" {
		log.Event("mcp:config_get", "list").Write(nil)
		return jsonResult(cfg.All())
	}

	v, err := cfg.Get(key)
	log.Event("mcp:config_get", "get").Detail("key", key).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{key: v})
}

// configSet handles dock_config_set tool calls.
func (h *handlers) configSet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError("key is required"), nil //nolint:nilerr
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value is required"), nil //nolint:nilerr
	}

	cfg, err := config.Load()
	if err != nil {
		log.Event("mcp:config_set", "set").Detail("key", key).Write(err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := cfg.Set(key, value); err != nil {
		log.Event("mcp:config_set", "set").Detail("key", key).Detail("value", value).Write(err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = cfg.Save()
	log.Event("mcp:config_set", "set").Detail("key", key).Detail("value", value).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %s (applies on next start)", key, value)), nil
}
