// Package extension defines the contract between the dock host and its
// extensions ("docks"). A dock is compiled into the host, registers itself
// from init() with its manifest identity, and is then driven through its
// lifecycle by the host. Beyond the required Extension methods, docks opt in
// to extra behaviour by implementing the capability interfaces below.
package extension

import (
	"context"
	"net/url"

	"github.com/spf13/cobra"
)

// Extension is the contract every dock implements.
//
// Lifecycle: construction → Setup → View (lazily, on first activation) →
// DidBecomeActive ⇄ DidResignActive → WillUnload.
type Extension interface {
	// Setup is called once after construction, before any other hook.
	// Returning an error aborts the load; the dock stays unloaded.
	Setup(ctx Context) error

	// View creates the dock's main surface. Called at most once per instance,
	// on first activation.
	View() (Surface, error)
}

// Activator docks are told when they become the focused dock.
type Activator interface {
	DidBecomeActive() error
}

// Resigner docks are told when another dock takes focus.
type Resigner interface {
	DidResignActive() error
}

// Unloader docks get a chance to save state before they are torn down.
// Notification and palette callbacks are detached before WillUnload runs.
type Unloader interface {
	WillUnload() error
}

// Requirer docks declare the host services they need, e.g. "network".
type Requirer interface {
	RequiredCapabilities() []string
}

// LinkHandler docks receive deep links addressed to their identifier
// (dock://<id>/<path>). Return true if the link was handled.
type LinkHandler interface {
	HandleURL(u *url.URL) bool
}

// KeyBinder docks register keyboard shortcuts scoped to the focused dock.
type KeyBinder interface {
	KeyBindings() []KeyBinding
}

// ActionProvider docks expose static palette actions, registered at load and
// replaced wholesale whenever the dock asks the palette to refresh.
type ActionProvider interface {
	Actions() []Action
}

// ActionExecutor docks run their static actions when the user selects them.
type ActionExecutor interface {
	ExecuteAction(id string) error
}

// SearchProvider docks return live results for every palette query.
// The query text is already lowercased. Keep it fast: the host enforces a
// per-dispatch time budget and drops late answers.
type SearchProvider interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

// SubViewProvider docks supply the surface shown when the user drills into
// an action with HasDrillDown set.
type SubViewProvider interface {
	SubView(actionID string) (Surface, error)
}

// PaletteObserver docks are told when the palette opens and closes, so they
// can refresh data before searching and release it afterwards.
type PaletteObserver interface {
	PaletteWillShow()
	PaletteDidHide()
}

// CategoryProvider docks list the categories they populate so the host can
// show headers before any query is typed.
type CategoryProvider interface {
	Categories() []string
}

// PlaceholderProvider docks supply search bar text while drilled in.
type PlaceholderProvider interface {
	Placeholder() string
}

// MenuProvider docks add items to the host menu while focused.
type MenuProvider interface {
	MenuItems() []MenuItem
}

// AnnotationHostCommand marks a cobra command, and its subcommands, to run
// outside the contributing dock's runner. Set it to "true" on commands that
// only drive the host.
const AnnotationHostCommand = "dock.host-command"

// Commander docks contribute CLI commands to the dock binary.
type Commander interface {
	Commands() []*cobra.Command
}

// ToolProvider docks expose MCP tools through "dock serve".
type ToolProvider interface {
	MCPTools() []MCPTool
}

// MenuItem describes a host menu entry contributed by a dock.
type MenuItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Shortcut string `json:"shortcut,omitempty"`
}

// Service names a dock may return from RequiredCapabilities. A host running
// with strict capabilities denies any of these the dock did not declare.
const (
	RequireNetwork       = "network"
	RequireStorage       = "storage"
	RequireSecrets       = "secrets"
	RequireNotifications = "notifications"
)
