// serve.go implements the "dock serve" command for MCP server operation.
//
// Separated from extension.go because serve has unique lifecycle
// requirements. Unlike other commands that run and exit, serve blocks
// handling MCP requests over stdio until the client disconnects, and every
// dock stays loaded for the whole session.

package core

import (
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start MCP server",
		Long: `Start an MCP (Model Context Protocol) server over stdio for LLM integration.

Tools cover listing and focusing docks, palette search and run, deep links,
notifications and key bindings, plus any tools the loaded docks contribute.
Run "dock guide serve" for the tool list.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	h, err := hostOf()
	if err != nil {
		return err
	}
	err = mcp.Serve(h)
	log.Event("core:serve", "stop").Write(err)
	return err
}
