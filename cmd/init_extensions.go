/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// init_extensions.go builds the host and loads the compiled-in docks.
//
// Separated from root.go to isolate the initialisation logic that loads
// config, wires the host and registers dock commands.
//
// Design: Docks register during init() but are not constructed until the
// host loads them here. A dock that fails to load is logged and skipped;
// the remaining docks and their commands stay available. The host is
// created once and shared by every command through Host().

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/config"
	"github.com/jpl-au/dock/internal/host"
	"github.com/jpl-au/dock/internal/log"
)

var (
	h        *host.Host
	hostOnce sync.Once
)

// Host returns the shared host. Nil before Execute.
func Host() *host.Host {
	return h
}

// initHost loads config, creates the host, loads every registered dock and
// adds the commands they contribute to the root command.
func initHost(ctx context.Context) {
	hostOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v (using defaults)\n", err)
			cfg = &config.Config{}
		}
		if lvl, ok := log.ParseLevel(cfg.LogLevel()); ok {
			log.SetEcho(os.Stderr, lvl)
		}

		h = host.New(host.Options{Config: cfg, StorageDir: Dir()})
		log.SetProject(h.StorageDir())

		if err := h.LoadAll(ctx, extension.All()); err != nil {
			// Each failure is already in the log; the rest keep working.
			log.Event("cmd", "load").Write(err)
		}
		for _, c := range h.Commands() {
			rootCmd.AddCommand(c)
		}
	})
}
