// Package core provides the built-in host commands of the dock binary:
// ls, show, search, open, publish, keys, press, menu, config, init, guide,
// log, storage, version and serve.
package core

import (
	_ "embed"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/manifest"
	"github.com/spf13/cobra"
)

//go:embed dock.yaml
var manifestData []byte

func init() {
	extension.Register(manifest.MustParse(manifestData), func() extension.Extension {
		return &Dock{}
	})
}

// Dock implements the core dock. It has no palette presence; it only
// contributes commands.
type Dock struct{}

// Compile-time interface compliance. Catches missing methods at build time
// rather than runtime, making interface changes safer to refactor.
var (
	_ extension.Extension = (*Dock)(nil)
	_ extension.Commander = (*Dock)(nil)
)

// Setup does nothing; core commands reach the host through cmd.Host.
func (d *Dock) Setup(extension.Context) error { return nil }

// View describes the core dock.
func (d *Dock) View() (extension.Surface, error) {
	return extension.Markdown("# Core\n\nBuilt-in host commands. Run `dock guide` for an overview.\n"), nil
}

// Commands returns all core CLI commands. Each runs outside the core dock's
// runner because it drives other docks, the core dock included.
func (d *Dock) Commands() []*cobra.Command {
	cmds := []*cobra.Command{
		newLsCmd(),
		newShowCmd(),
		newSearchCmd(),
		newOpenCmd(),
		newPublishCmd(),
		newKeysCmd(),
		newPressCmd(),
		newMenuCmd(),
		newConfigCmd(),
		newInitCmd(),
		newGuideCmd(),
		newLogCmd(),
		newStorageCmd(),
		newVersionCmd(),
		newServeCmd(),
	}
	for _, c := range cmds {
		if c.Annotations == nil {
			c.Annotations = map[string]string{}
		}
		c.Annotations[extension.AnnotationHostCommand] = "true"
	}
	return cmds
}
