// tools_guide.go implements the MCP tool for accessing help content.
//
// The guide tool gives LLMs the same documentation as "dock guide", so they
// can learn the palette and deep-link conventions without external lookups.

package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpl-au/dock/guide"
	"github.com/jpl-au/dock/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
)

// getGuide handles dock_guide tool calls.
func (h *handlers) getGuide(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic := getString(req, "topic", "")

	content, err := guide.Get(topic)
	log.Event("mcp:guide", "read").Detail("topic", topic).Write(err)
	switch {
	case errors.Is(err, guide.ErrUnknownTopic):
		topics, listErr := guide.Topics()
		if listErr != nil {
			return nil, fmt.Errorf("listing guides: %w", listErr)
		}
		return jsonResult(map[string]any{
			"error":            err.Error(),
			"available_topics": topics,
		})
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}
