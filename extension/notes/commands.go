// commands.go implements the "dock notes" commands and MCP tools.
//
// Separated from notes.go so the palette behaviour and the CLI surface can
// be read independently. The host runs every command on the dock's runner,
// so commands share the book and cache with palette callbacks safely.

package notes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/diff"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Flag names local to the notes commands.
const (
	flagRev   = "rev"
	flagRange = "range"
)

// Commands returns the notes command tree.
func (d *Dock) Commands() []*cobra.Command {
	c := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes",
		Long:  `Add, list, edit, diff and lock notes kept by the notes dock.`,
	}
	c.AddCommand(
		d.newAddCmd(),
		d.newLsCmd(),
		d.newShowCmd(),
		d.newEditCmd(),
		d.newRmCmd(),
		d.newDiffCmd(),
		d.newLockCmd(),
		d.newUnlockCmd(),
		d.newSyncCmd(),
	)
	return []*cobra.Command{c}
}

func ctxOf(c *cobra.Command) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (d *Dock) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			n, err := d.add(ctxOf(c), strings.Join(args, " "))
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(n)
			}
			fmt.Fprintf(cmd.Out(), "added note %s\n", n.ID)
			return nil
		},
	}
}

func (d *Dock) newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			notes, err := d.book.List(ctxOf(c))
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				if notes == nil {
					notes = []Note{}
				}
				return cmd.PrintJSON(notes)
			}
			if len(notes) == 0 {
				fmt.Fprintln(cmd.Out(), "no notes")
				return nil
			}
			for _, n := range notes {
				fmt.Fprintf(cmd.Out(), "%4s  %-60s  %s\n", n.ID, n.Title(), humanize.Time(n.Updated))
			}
			return nil
		},
	}
}

func (d *Dock) newShowCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			n, err := d.book.Get(ctxOf(c), args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			rev, _ := c.Flags().GetInt(flagRev)
			if rev == 0 {
				rev = n.Current()
			}
			text, err := n.Revision(rev)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(map[string]any{"id": n.ID, "revision": rev, "text": text})
			}
			fmt.Fprintln(cmd.Out(), text)
			return nil
		},
	}
	c.Flags().Int(flagRev, 0, "Revision to print (default: current)")
	return c
}

func (d *Dock) newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>...",
		Short: "Replace a note's text, keeping the old text as a revision",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := ctxOf(c)
			n, err := d.book.Update(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := d.changed(ctx); err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(n)
			}
			fmt.Fprintf(cmd.Out(), "note %s now at revision %d\n", n.ID, n.Current())
			return nil
		},
	}
}

func (d *Dock) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a note",
		Long:  `Delete a note. Locked notes are only deleted with --force.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := ctxOf(c)
			n, err := d.book.Get(ctx, args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if n.Locked && !cmd.Force() {
				return cmd.PrintJSONError(fmt.Errorf("%s: %w (use --force to delete)", n.ID, ErrLocked))
			}
			if err := d.book.Delete(ctx, n.ID); err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := d.changed(ctx); err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(map[string]string{"deleted": n.ID})
			}
			fmt.Fprintf(cmd.Out(), "deleted note %s\n", n.ID)
			return nil
		},
	}
}

func (d *Dock) newDiffCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "diff <id>",
		Short: "Show changes between revisions of a note",
		Long: `Show changes between two revisions of a note. Without --range the
previous revision is compared with the current text.

  dock notes diff 3
  dock notes diff 3 --range 1:4`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			n, err := d.book.Get(ctxOf(c), args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			rng, _ := c.Flags().GetString(flagRange)
			r, err := Diff(n, rng)
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(r)
			}
			colour := term.IsTerminal(int(os.Stdout.Fd()))
			fmt.Fprint(cmd.Out(), r.Format(colour))
			return nil
		},
	}
	c.Flags().String(flagRange, "", "Revisions to compare as from:to")
	return c
}

// Diff compares two revisions of n. An empty rng compares the previous
// revision with the current text.
func Diff(n Note, rng string) (diff.Result, error) {
	if n.Locked {
		return diff.Result{}, fmt.Errorf("%s: %w", n.ID, ErrLocked)
	}
	from, to := n.Current()-1, n.Current()
	if rng != "" {
		var err error
		if from, to, err = diff.ParseRange(rng); err != nil {
			return diff.Result{}, err
		}
	} else if from < 1 {
		return diff.Result{}, fmt.Errorf("%s: %w", n.ID, ErrNoRevisions)
	}
	a, err := n.Revision(from)
	if err != nil {
		return diff.Result{}, err
	}
	b, err := n.Revision(to)
	if err != nil {
		return diff.Result{}, err
	}
	return diff.Compute(a+"\n", b+"\n", label(n, from), label(n, to)), nil
}

func label(n Note, rev int) string {
	if rev == n.Current() {
		return fmt.Sprintf("note %s (current)", n.ID)
	}
	return fmt.Sprintf("note %s revision %d", n.ID, rev)
}

func (d *Dock) newLockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <id>",
		Short: "Move a note's text into secret storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := ctxOf(c)
			n, err := d.book.Lock(ctx, args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := d.changed(ctx); err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(n)
			}
			fmt.Fprintf(cmd.Out(), "locked note %s\n", n.ID)
			return nil
		},
	}
}

func (d *Dock) newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <id>",
		Short: "Restore a locked note",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := ctxOf(c)
			n, err := d.book.Unlock(ctx, args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := d.changed(ctx); err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(n)
			}
			fmt.Fprintf(cmd.Out(), "unlocked note %s\n", n.ID)
			return nil
		},
	}
}

func (d *Dock) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload notes from storage and tell other docks",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if err := d.reload(ctxOf(c)); err != nil {
				return cmd.PrintJSONError(err)
			}
			d.requestSync()
			n := len(d.Notes())
			if cmd.JSON() {
				return cmd.PrintJSON(map[string]int{"notes": n})
			}
			fmt.Fprintf(cmd.Out(), "%d %s\n", n, plural(n, "note"))
			return nil
		},
	}
}

// MCPTools exposes adding and listing notes.
func (d *Dock) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("notes_add",
				mcp.WithDescription("Add a note to the notes dock."),
				mcp.WithString("text", mcp.Required(), mcp.Description("Note text")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				text, _ := req.GetArguments()["text"].(string)
				n, err := d.add(ctx, text)
				if errors.Is(err, ErrEmpty) {
					return mcp.NewToolResultError(err.Error()), nil
				}
				if err != nil {
					return nil, err
				}
				return mcp.NewToolResultText("added note " + n.ID), nil
			},
		},
		{
			Tool: mcp.NewTool("notes_list",
				mcp.WithDescription("List notes, most recently updated first. Locked notes show no text."),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				var b strings.Builder
				for _, n := range d.Notes() {
					fmt.Fprintf(&b, "%s: %s\n", n.ID, n.Title())
				}
				if b.Len() == 0 {
					return mcp.NewToolResultText("no notes"), nil
				}
				return mcp.NewToolResultText(b.String()), nil
			},
		},
	}
}
