// storage.go implements the "dock storage" command, which reports and purges
// what docks keep in host storage.
//
// Separated from docks.go because purging is destructive and needs a
// confirmation prompt, while the other dock commands are not.
//
// Design: purge works by dock identifier rather than through the dock, so
// the data of a dock that no longer loads can still be removed.

package core

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/storage"
	"github.com/spf13/cobra"
)

func newStorageCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "storage [dock-id]...",
		Short: "Show how many keys and secrets docks store",
		Long: `Show how many keys and secrets each dock keeps in host storage.

  dock storage                        # every loaded dock
  dock storage com.jpl.notes
  dock storage purge com.jpl.notes    # delete everything a dock stored`,
		RunE: runStorage,
	}
	c.AddCommand(newPurgeCmd())
	return c
}

type usageRow struct {
	Dock string `json:"dock"`
	storage.Usage
}

func runStorage(c *cobra.Command, args []string) error {
	h, err := hostOf()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	st, err := h.Storage()
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("open storage: %w", err))
	}

	ids := args
	if len(ids) == 0 {
		for _, d := range h.Docks() {
			ids = append(ids, d.Identity.ID)
		}
	}
	rows := make([]usageRow, 0, len(ids))
	for _, id := range ids {
		u, err := st.Usage(cmdContext(c), id)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("%s: %w", id, err))
		}
		rows = append(rows, usageRow{Dock: id, Usage: u})
	}

	if cmd.JSON() {
		return cmd.PrintJSON(map[string]any{"dir": st.Dir(), "docks": rows})
	}
	fmt.Fprintf(cmd.Out(), "storage: %s\n", st.Dir())
	for _, r := range rows {
		fmt.Fprintf(cmd.Out(), "%-16s %4d %s %4d %s\n", r.Dock, r.Keys, plural(r.Keys, "key"), r.Secrets, plural(r.Secrets, "secret"))
	}
	return nil
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <dock-id>",
		Short: "Permanently delete a dock's stored keys and secrets",
		Long: `Permanently delete every key and secret a dock stored.

This is irreversible. Use --force to skip confirmation. A loaded dock keeps
whatever it already read into memory until it is unloaded.`,
		Args: cobra.ExactArgs(1),
		RunE: runPurge,
	}
}

func runPurge(c *cobra.Command, args []string) error {
	h, err := hostOf()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	id := args[0]
	known := slices.ContainsFunc(extension.All(), func(r extension.Registration) bool { return r.Identity.ID == id })
	if !known && !cmd.Force() {
		return cmd.PrintJSONError(fmt.Errorf("%s is not a compiled-in dock (use --force to purge anyway)", id))
	}

	if !cmd.Force() {
		fmt.Fprintf(cmd.Out(), "Permanently delete everything %s stored? This cannot be undone. [y/N] ", id)
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("reading confirmation: %w", err))
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(cmd.Out(), "Cancelled")
			return nil
		}
	}

	st, err := h.Storage()
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("open storage: %w", err))
	}
	n, err := st.Purge(cmdContext(c), id)
	log.Event("core:storage", "purge").Dock(id).Detail("rows", n).Write(err)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("purge %s: %w", id, err))
	}
	if err := st.Checkpoint(cmdContext(c)); err != nil {
		log.Event("core:storage", "checkpoint").Write(err)
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]any{"dock": id, "deleted": n})
	}
	fmt.Fprintf(cmd.Out(), "Deleted %d %s from %s\n", n, plural(int(n), "row"), id)
	return nil
}
