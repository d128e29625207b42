// attach.go records what a dock contributes once its setup succeeds.
//
// Separated from services.go because attaching happens after Setup while
// the services exist before it. The lifecycle controller calls Attach on the
// dock's own runner, so reading the dock's key bindings, commands and tools
// here never races with the dock.

package host

import (
	"context"
	"fmt"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

// Attach stores the dock's hooks and reads its key bindings, commands and
// MCP tools.
func (h *Host) Attach(id string, hooks extension.Hooks) error {
	d, ok := h.lookup(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrDetached)
	}

	var bindings []extension.KeyBinding
	if hooks.Keys != nil {
		bindings = h.applyOverrides(id, hooks.Keys.KeyBindings())
	}
	var cmds []*cobra.Command
	if hooks.Commands != nil {
		for _, c := range hooks.Commands.Commands() {
			cmds = append(cmds, h.wrapCommand(id, c))
		}
	}
	var tools []extension.MCPTool
	if hooks.Tools != nil {
		for _, t := range hooks.Tools.MCPTools() {
			if err := t.Validate(); err != nil {
				log.Event("host:attach", "tool").Dock(id).Write(err)
				continue
			}
			tools = append(tools, h.wrapTool(id, t))
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("%s: %w", id, ErrDetached)
	}
	d.hooks = hooks
	d.bindings = bindings
	d.commands = cmds
	d.tools = tools
	d.attached = true
	return nil
}

// Detach closes the dock's record. Observations added after this fail, and
// any that slipped in before are removed again.
func (h *Host) Detach(id string) {
	h.mu.Lock()
	d, ok := h.docks[id]
	if ok {
		delete(h.docks, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	h.bus.RemoveAll(id)
	h.net.Forget(id)
}

// wrapCommand runs a dock command, and its subcommands, on the dock's
// runner. Commands annotated with extension.AnnotationHostCommand run on the
// caller's goroutine instead; they drive other docks and would otherwise
// queue behind themselves when they reach their own dock.
func (h *Host) wrapCommand(id string, c *cobra.Command) *cobra.Command {
	if c.Annotations[extension.AnnotationHostCommand] == "true" {
		return c
	}
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return h.Run(cmdContext(cmd), id, func() error { return run(cmd, args) })
		}
	} else if run := c.Run; run != nil {
		c.Run = nil
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return h.Run(cmdContext(cmd), id, func() error {
				run(cmd, args)
				return nil
			})
		}
	}
	for _, sub := range c.Commands() {
		h.wrapCommand(id, sub)
	}
	return c
}

func cmdContext(c *cobra.Command) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (h *Host) wrapTool(id string, t extension.MCPTool) extension.MCPTool {
	handler := t.Handler
	t.Handler = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var res *mcp.CallToolResult
		err := h.Run(ctx, id, func() error {
			r, err := handler(ctx, req)
			res = r
			return err
		})
		if err != nil {
			log.Event("mcp", t.Tool.Name).Dock(id).Write(err)
		}
		return res, err
	}
	return t
}

// Commands returns the CLI commands contributed by attached docks, in load
// order.
func (h *Host) Commands() []*cobra.Command {
	var out []*cobra.Command
	for _, d := range h.attached() {
		d.mu.Lock()
		out = append(out, d.commands...)
		d.mu.Unlock()
	}
	return out
}

// Tools returns the MCP tools contributed by attached docks, in load order.
func (h *Host) Tools() []extension.MCPTool {
	var out []extension.MCPTool
	for _, d := range h.attached() {
		d.mu.Lock()
		out = append(out, d.tools...)
		d.mu.Unlock()
	}
	return out
}
