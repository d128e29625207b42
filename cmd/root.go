/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// root.go defines the root command and CLI execution entry point.
//
// Separated from init_extensions.go to isolate cobra setup from host
// initialisation logic.
//
// Design: the host is built and every dock loaded before cobra parses the
// command line, because docks contribute commands. Storage is opened lazily,
// so a --dir given on the command line still takes effect as long as no
// dock wrote to storage during setup; earlyFlags covers that case.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/jpl-au/dock/internal/log"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds unloading every dock on exit.
const shutdownTimeout = 5 * time.Second

var rootCmd = &cobra.Command{
	Use:   "dock",
	Short: "Extension host for command palette docks",
	Long: `dock hosts compiled-in extensions ("docks") and coordinates their lifecycle,
notifications, deep links, key bindings and palette search.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if output != "" && !slices.Contains(validOutputFormats, output) {
			return fmt.Errorf("invalid output format: %s (valid: %v)", output, validOutputFormats)
		}
		if d := Dir(); d != "" {
			h.SetStorageDir(d)
		}
		return nil
	},
}

// Execute runs the root command and handles process lifecycle.
// Opens audit logging, loads every dock, executes the command, and unloads
// the docks before exit. Exit code 1 indicates error.
func Execute() {
	// Initialise audit logger (warn if it fails, but continue)
	if err := log.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log unavailable: %v\n", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	earlyFlags(os.Args[1:])
	initHost(ctx)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if h != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if serr := h.Shutdown(sctx); serr != nil {
			fmt.Fprintf(os.Stderr, "warning: shutdown: %v\n", serr)
		}
		cancel()
	}

	if err != nil {
		log.Close()
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing and dock access.
func RootCmd() *cobra.Command {
	return rootCmd
}
