// search.go implements the "dock search" command.
//
// Separated from docks.go because search runs through a palette session:
// opening it tells palette observers the palette is showing, drilling in
// narrows the dispatch to one dock, and closing it tells them it is hidden.
//
// Design: live results only exist for the dispatch that produced them, so
// --select picks a row from the same dispatch that was printed rather than
// searching again.

package core

import (
	"fmt"
	"strings"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/palette"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "search [query]...",
		Short: "Search the command palette",
		Long: `Search every dock's actions and live results, grouped by category.

  dock search time                            # results for "time"
  dock search                                 # everything, empty query
  dock search 2+2 --select 1                  # run the first result
  dock search --drill com.jpl.calc/history    # drill into an action`,
		RunE: runSearch,
	}
	c.Flags().String(extension.FlagDrill, "", "Drill into <dock-id>/<action-id> before searching")
	c.Flags().Int(extension.FlagSelect, 0, "Run the result at this 1-based position")
	c.Flags().Bool(extension.FlagRaw, false, "Output without colour or markdown rendering")
	return c
}

func runSearch(c *cobra.Command, args []string) error {
	h, err := hostOf()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	ctx := cmdContext(c)
	query := strings.Join(args, " ")
	drill, _ := c.Flags().GetString(extension.FlagDrill)
	sel, _ := c.Flags().GetInt(extension.FlagSelect)
	raw, _ := c.Flags().GetBool(extension.FlagRaw)

	// Wake logs its own failures; a dock that cannot wake is just not searched.
	_ = h.Wake(ctx)
	s := h.OpenPalette()
	defer h.ClosePalette()

	var sub extension.Surface
	if drill != "" {
		t, err := palette.ParseTarget(drill)
		if err != nil {
			return cmd.PrintJSONError(err)
		}
		if sub, err = s.DrillDown(ctx, t); err != nil {
			return cmd.PrintJSONError(fmt.Errorf("drill into %s: %w", t, err))
		}
	}

	res, err := s.Dispatch(ctx, query)
	log.Event("core:search", "search").Detail("query", query).Detail("results", res.Len()).Write(err)
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	if sel > 0 {
		return selectResult(c, s, res, sel, raw)
	}

	if cmd.JSON() {
		out := map[string]any{"results": res}
		if p := s.Placeholder(); p != "" {
			out["placeholder"] = p
		}
		if sub != nil {
			out["subview"] = fmt.Sprint(sub)
		}
		return cmd.PrintJSON(out)
	}
	if sub != nil {
		fmt.Fprint(cmd.Out(), renderSurface(sub, raw))
		fmt.Fprintln(cmd.Out())
	}
	if res.Len() == 0 {
		fmt.Fprintln(cmd.Out(), "no results")
		return nil
	}
	fmt.Fprint(cmd.Out(), formatResults(res, !raw && isTerminal()))
	return nil
}

func selectResult(c *cobra.Command, s *palette.Session, res palette.Results, n int, raw bool) error {
	items := res.Items()
	if n > len(items) {
		return cmd.PrintJSONError(fmt.Errorf("--select %d: only %d %s", n, len(items), plural(len(items), "result")))
	}
	it := items[n-1]
	sub, err := s.Select(cmdContext(c), it)
	log.Event("core:search", "select").Dock(it.Extension).Detail("action", it.ID).Write(err)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	if cmd.JSON() {
		out := map[string]any{"ran": it.Key().String(), "title": it.Title}
		if sub != nil {
			out["subview"] = fmt.Sprint(sub)
		}
		return cmd.PrintJSON(out)
	}
	if sub != nil {
		fmt.Fprint(cmd.Out(), renderSurface(sub, raw))
		return nil
	}
	fmt.Fprintf(cmd.Out(), "ran %s (%s)\n", it.Title, it.Key())
	return nil
}
