// docks.go implements the commands that act on docks directly: ls, show,
// open and publish.
//
// Separated from search.go because these commands address one dock or the
// bus, while search goes through a palette session.

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/host"
	"github.com/jpl-au/dock/internal/lifecycle"
	"github.com/jpl-au/dock/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// dockRow is one line of "dock ls".
type dockRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	MinSDK       string    `json:"min_sdk_version"`
	State        string    `json:"state"`
	Capabilities []string  `json:"capabilities,omitempty"`
	Required     []string  `json:"required,omitempty"`
	LoadedAt     time.Time `json:"loaded_at,omitzero"`
}

func newLsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ls",
		Short: "List loaded docks",
		Long: `List loaded docks with their lifecycle state and capabilities.

  dock ls          # loaded docks
  dock ls --all    # include compiled-in docks that failed to load`,
		Args: cobra.NoArgs,
		RunE: runLs,
	}
	c.Flags().BoolP(extension.FlagAll, "A", false, "Include docks that are not loaded")
	return c
}

func runLs(c *cobra.Command, _ []string) error {
	h, err := hostOf()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	all, _ := c.Flags().GetBool(extension.FlagAll)

	var rows []dockRow
	seen := map[string]bool{}
	for _, info := range h.Docks() {
		seen[info.Identity.ID] = true
		rows = append(rows, dockRow{
			ID:           info.Identity.ID,
			Name:         info.Identity.Name,
			Version:      info.Identity.Version,
			MinSDK:       info.Identity.MinSDKVersion,
			State:        info.State.String(),
			Capabilities: info.Capabilities,
			Required:     info.Required,
			LoadedAt:     info.LoadedAt,
		})
	}
	if all {
		for _, reg := range extension.All() {
			if seen[reg.Identity.ID] {
				continue
			}
			rows = append(rows, dockRow{
				ID:      reg.Identity.ID,
				Name:    reg.Identity.Name,
				Version: reg.Identity.Version,
				MinSDK:  reg.Identity.MinSDKVersion,
				State:   lifecycle.Unloaded.String(),
			})
		}
	}
	log.Event("core:ls", "list").Detail("count", len(rows)).Write(nil)

	if cmd.JSON() {
		if rows == nil {
			rows = []dockRow{}
		}
		return cmd.PrintJSON(map[string]any{"focused": h.Focused(), "docks": rows})
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.Out(), "no docks loaded")
		return nil
	}
	now := time.Now()
	for _, r := range rows {
		fmt.Fprintf(cmd.Out(), "%-16s %-10s %-8s %-9s", r.ID, r.Name, r.Version, r.State)
		if len(r.Capabilities) > 0 {
			fmt.Fprintf(cmd.Out(), " %s", strings.Join(r.Capabilities, ","))
		}
		if !r.LoadedAt.IsZero() {
			fmt.Fprintf(cmd.Out(), " (loaded %s)", humanize.RelTime(r.LoadedAt, now, "ago", "from now"))
		}
		fmt.Fprintln(cmd.Out())
	}
	return nil
}

func newShowCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "show <dock-id>",
		Short: "Focus a dock and render its view",
		Long: `Focus a dock and print its main view. The view is built on first
activation and reused afterwards.

  dock show com.jpl.clock
  dock show com.jpl.notes --raw`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
	c.Flags().Bool(extension.FlagRaw, false, "Output raw markdown without rendering")
	return c
}

func runShow(c *cobra.Command, args []string) error {
	h, err := hostOf()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	id := args[0]
	raw, _ := c.Flags().GetBool(extension.FlagRaw)

	err = h.Activate(cmdContext(c), id)
	log.Event("core:show", "activate").Dock(id).Write(err)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("show %s: %w", id, err))
	}
	s, _ := h.Lifecycle().Surface(id)
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]any{"id": id, "state": h.Lifecycle().State(id).String(), "view": fmt.Sprint(s)})
	}
	fmt.Fprint(cmd.Out(), renderSurface(s, raw))
	return nil
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <url>",
		Short: "Route a deep link to its dock",
		Long: `Route a dock:// link to the dock named by its host. The dock is not
focused by routing.

  dock open "dock://com.jpl.notes/new?text=hello"`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			h, err := hostOf()
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			ctx := cmdContext(c)
			_ = h.Wake(ctx)
			if err := h.OpenURL(ctx, args[0]); err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(map[string]string{"handled": args[0]})
			}
			fmt.Fprintf(cmd.Out(), "handled %s\n", args[0])
			return nil
		},
	}
}

func newPublishCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "publish <topic> [payload]",
		Short: "Post a notification to every subscriber",
		Long: `Post a notification on the shared bus. Delivery is asynchronous; the
command waits up to --wait milliseconds for subscribers to finish.

  dock publish sync
  dock publish theme.changed dark --wait 500`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPublish,
	}
	c.Flags().Int(extension.FlagWait, 200, "Milliseconds to wait for delivery")
	return c
}

func runPublish(c *cobra.Command, args []string) error {
	h, err := hostOf()
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	topic := args[0]
	var payload []byte
	if len(args) == 2 {
		payload = []byte(args[1])
	}
	wait, _ := c.Flags().GetInt(extension.FlagWait)

	n := h.Bus().Subscribers(topic)
	h.Bus().Publish(topic, payload)
	log.Event("core:publish", "publish").Detail("topic", topic).Detail("subscribers", n).Write(nil)
	drained := settle(cmdContext(c), h, time.Duration(wait)*time.Millisecond)

	if cmd.JSON() {
		return cmd.PrintJSON(map[string]any{"topic": topic, "subscribers": n, "delivered": drained})
	}
	fmt.Fprintf(cmd.Out(), "posted %s to %d %s\n", topic, n, plural(n, "subscriber"))
	if !drained {
		fmt.Fprintln(cmd.Out(), "some deliveries still running")
	}
	return nil
}

// settle queues a no-op behind every dock's pending work and waits for it,
// so deliveries posted before the call have finished when it returns true.
func settle(ctx context.Context, h *host.Host, wait time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	var g errgroup.Group
	for _, d := range h.Docks() {
		g.Go(func() error {
			return h.Run(ctx, d.Identity.ID, func() error { return nil })
		})
	}
	return g.Wait() == nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func cmdContext(c *cobra.Command) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
