// log.go implements the "dock log" command, which prints recent messages
// docks wrote through their Logger.

package core

import (
	"fmt"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "log",
		Short: "Show recent dock log messages",
		Long: `Show recent messages written by docks and the host, newest first.

  dock log
  dock log --source com.jpl.notes --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			limit, _ := c.Flags().GetInt(extension.FlagLimit)
			source, _ := c.Flags().GetString(extension.FlagSource)
			if limit < 1 {
				return cmd.PrintJSONError(fmt.Errorf("--limit must be >= 1"))
			}

			recs, err := log.Messages(limit, source)
			if err != nil {
				return cmd.PrintJSONError(fmt.Errorf("read log: %w", err))
			}
			if cmd.JSON() {
				if recs == nil {
					recs = []log.Record{}
				}
				return cmd.PrintJSON(recs)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.Out(), "no messages")
				return nil
			}
			for _, r := range recs {
				fmt.Fprintf(cmd.Out(), "%s %-7s %-16s %s\n", r.Time.Format("2006-01-02 15:04:05"), r.Level, r.Source, r.Message)
			}
			return nil
		},
	}
	c.Flags().IntP(extension.FlagLimit, "n", 20, "Maximum messages to show")
	c.Flags().String(extension.FlagSource, "", "Only messages from this dock or host component")
	return c
}
