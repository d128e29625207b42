// tools_docks.go implements MCP tools that act on docks directly: listing,
// focusing, deep links, notifications and key bindings.

package mcp

import (
	"context"
	"fmt"

	"github.com/jpl-au/dock/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
)

// listDocks handles dock_list tool calls.
func (h *handlers) listDocks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docks := h.h.Docks()
	log.Event("mcp:list", "list").Detail("count", len(docks)).Write(nil)
	return jsonResult(map[string]any{
		"focused": h.h.Focused(),
		"docks":   docks,
	})
}

// activate handles dock_activate tool calls.
func (h *handlers) activate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}
	err = h.h.Activate(ctx, id)
	log.Event("mcp:activate", "activate").Dock(id).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s is focused", id)), nil
}

// open handles dock_open tool calls.
func (h *handlers) open(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil //nolint:nilerr
	}
	_ = h.h.Wake(ctx)
	if err := h.h.OpenURL(ctx, raw); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("handled " + raw), nil
}

// publish handles dock_publish tool calls.
func (h *handlers) publish(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := req.RequireString("topic")
	if err != nil || topic == "" {
		return mcp.NewToolResultError("topic is required"), nil //nolint:nilerr
	}
	payload := getString(req, "payload", "")
	n := h.h.Bus().Subscribers(topic)
	h.h.Bus().Publish(topic, []byte(payload))
	log.Event("mcp:publish", "publish").Detail("topic", topic).Detail("bytes", len(payload)).Write(nil)
	return mcp.NewToolResultText(fmt.Sprintf("posted %s to %d subscribers", topic, n)), nil
}

// keys handles dock_keys tool calls.
func (h *handlers) keys(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.h.Bindings())
}

// press handles dock_press tool calls.
func (h *handlers) press(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	chord, err := req.RequireString("chord")
	if err != nil {
		return mcp.NewToolResultError("chord is required"), nil //nolint:nilerr
	}
	b, err := h.h.PressKey(ctx, chord)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}
