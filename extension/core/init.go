// init.go implements the "dock init" command, which creates a local
// configuration for the current directory.
//
// Separated from config.go because init creates the local scope rather than
// editing whichever scope is active. Once .dock/config.yaml exists, every
// dock invocation from this directory reads it instead of the global file.

package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/internal/config"
	"github.com/jpl-au/dock/internal/log"
	"github.com/spf13/cobra"
)

// errConfigExists is returned by init when a local config is already there.
var errConfigExists = errors.New("local config already exists")

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a local .dock/config.yaml",
		Long: `Create .dock/config.yaml in the current directory, starting from the
global configuration. Use --force to replace an existing local config.

With --dir the local config records that directory as storage.dir, so
later invocations from here use it without the flag.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(_ *cobra.Command, _ []string) error {
	path := config.LocalPath()
	_, statErr := os.Stat(path)
	if statErr == nil && !cmd.Force() {
		return cmd.PrintJSONError(fmt.Errorf("%w: %s (use --force to replace)", errConfigExists, path))
	}
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return cmd.PrintJSONError(statErr)
	}

	cfg, err := config.LoadScope(config.ScopeGlobal)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("config load: %w", err))
	}
	if dir := cmd.Dir(); dir != "" {
		if err := cfg.Set("storage.dir", dir); err != nil {
			return cmd.PrintJSONError(err)
		}
	}
	err = cfg.SaveScope(config.ScopeLocal)
	log.Event("core:init", "init").Detail("path", path).Detail("dir", cmd.Dir()).Write(err)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("init: %w", err))
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]string{"config": path})
	}
	fmt.Fprintf(cmd.Out(), "Created %s\n", path)
	return nil
}
