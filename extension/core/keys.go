// keys.go implements the key binding and menu commands: keys, press and
// menu.
//
// Bindings and menus belong to the focused dock. A CLI invocation starts
// with nothing focused, so press and menu take --focus to activate a dock
// first.

package core

import (
	"fmt"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/host"
	"github.com/jpl-au/dock/internal/log"
	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List key bindings",
		Long: `List every dock's key bindings with user overrides applied. Override a
binding with the config key keys.<dock-id>/<binding-id>, for example:

  dock config keys.com.jpl.notes/new ctrl+alt+n`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			h, err := hostOf()
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			bindings := h.Bindings()
			if cmd.JSON() {
				if bindings == nil {
					bindings = []host.Binding{}
				}
				return cmd.PrintJSON(bindings)
			}
			if len(bindings) == 0 {
				fmt.Fprintln(cmd.Out(), "no key bindings")
				return nil
			}
			for _, b := range bindings {
				over := ""
				if b.Override {
					over = " (override)"
				}
				fmt.Fprintf(cmd.Out(), "%-8s %-16s %-12s %s%s\n", b.Chord, b.Dock, b.ID, b.Title, over)
			}
			return nil
		},
	}
}

// focusFlag activates the dock named by --focus, if given.
func focusFlag(c *cobra.Command, h *host.Host) error {
	id, _ := c.Flags().GetString(extension.FlagFocus)
	if id == "" {
		return nil
	}
	err := h.Activate(cmdContext(c), id)
	log.Event("core:focus", "activate").Dock(id).Write(err)
	if err != nil {
		return fmt.Errorf("focus %s: %w", id, err)
	}
	return nil
}

func newPressCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "press <chord>",
		Short: "Fire the focused dock's key binding",
		Long: `Fire the focused dock's binding for a chord written as modifiers and a
key joined by + or -. Modifiers: cmd, shift, alt (opt), ctrl.

  dock press cmd+n --focus com.jpl.notes
  dock press cmd-shift-s --focus com.jpl.notes`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			h, err := hostOf()
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := focusFlag(c, h); err != nil {
				return cmd.PrintJSONError(err)
			}
			b, err := h.PressKey(cmdContext(c), args[0])
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				return cmd.PrintJSON(b)
			}
			fmt.Fprintf(cmd.Out(), "%s ran %s/%s (%s)\n", b.Chord, b.Dock, b.ID, b.Title)
			return nil
		},
	}
	c.Flags().String(extension.FlagFocus, "", "Dock to focus first")
	return c
}

func newMenuCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "menu",
		Short: "List the focused dock's menu items",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			h, err := hostOf()
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if err := focusFlag(c, h); err != nil {
				return cmd.PrintJSONError(err)
			}
			items, err := h.MenuItems(cmdContext(c))
			if err != nil {
				return cmd.PrintJSONError(err)
			}
			if cmd.JSON() {
				if items == nil {
					items = []extension.MenuItem{}
				}
				return cmd.PrintJSON(items)
			}
			if len(items) == 0 {
				fmt.Fprintf(cmd.Out(), "%s has no menu items\n", h.Focused())
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(cmd.Out(), "%-24s %s\n", it.Title, it.Shortcut)
			}
			return nil
		},
	}
	c.Flags().String(extension.FlagFocus, "", "Dock to focus first")
	return c
}
