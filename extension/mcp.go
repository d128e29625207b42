// mcp.go defines the MCP tools a dock can expose through "dock serve".
//
// Separated from extension.go because most docks only contribute palette
// entries. A tool's handler runs on the dock's runner like every other dock
// callback; whatever else it needs comes from the Context captured in Setup.

package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrInvalidTool is returned by MCPTool.Validate.
var ErrInvalidTool = errors.New("invalid MCP tool")

// MCPTool pairs an MCP tool definition with its handler.
type MCPTool struct {
	Tool    mcp.Tool
	Handler MCPHandler
}

// MCPHandler processes MCP tool requests.
type MCPHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Validate reports a tool the server could not register: one without a
// name or without a handler.
func (t MCPTool) Validate() error {
	if t.Tool.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTool)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidTool, t.Tool.Name)
	}
	return nil
}
