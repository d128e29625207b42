// tools_search.go implements MCP tools for the command palette.
//
// Separated from tools_docks.go because palette tools go through a session
// rather than the host directly. Each call opens a short-lived session so
// palette observers see the same show/hide pair a front end would produce.
//
// Design: live results carry a callback that only exists for the dispatch
// that produced them, so dock_run repeats the search with the caller's query
// before running. Static and inline items run without a query.

package mcp

import (
	"context"
	"fmt"

	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/palette"
	"github.com/mark3labs/mcp-go/mcp"
)

// search handles dock_search tool calls.
func (h *handlers) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := getString(req, "query", "")
	drill := getString(req, "drill", "")

	_ = h.h.Wake(ctx)
	s := h.h.Palette().Open()
	defer s.Close()

	var sub any
	if drill != "" {
		t, err := palette.ParseTarget(drill)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sub, err = s.DrillDown(ctx, t)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	res, err := s.Dispatch(ctx, query)
	log.Event("mcp:search", "search").Detail("query", query).Detail("results", res.Len()).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := map[string]any{"results": res}
	if p := s.Placeholder(); p != "" {
		out["placeholder"] = p
	}
	if sub != nil {
		out["subview"] = fmt.Sprint(sub)
	}
	return jsonResult(out)
}

// run handles dock_run tool calls.
func (h *handlers) run(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError("target is required"), nil //nolint:nilerr
	}
	t, err := palette.ParseTarget(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query := getString(req, "query", "")

	_ = h.h.Wake(ctx)
	s := h.h.Palette().Open()
	defer s.Close()

	res, err := s.Dispatch(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	it, ok := res.Find(t)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%s not found for query %q", t, query)), nil
	}

	sub, err := s.Select(ctx, it)
	log.Event("mcp:run", "run").Dock(t.Extension).Detail("action", t.Action).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sub != nil {
		return mcp.NewToolResultText(fmt.Sprint(sub)), nil
	}
	return mcp.NewToolResultText("ran " + t.String()), nil
}
