// action.go defines the palette entries docks contribute.
//
// Action is used both for static actions (returned from Actions) and for
// inline registrations pushed through Palette.RegisterInline. Result is the
// per-query shape returned by a SearchProvider and carries its own callback.

package extension

import "context"

// Accent is an icon accent colour from the host's fixed palette.
type Accent string

// Supported accents.
const (
	AccentNone   Accent = ""
	AccentBlue   Accent = "blue"
	AccentGreen  Accent = "green"
	AccentOrange Accent = "orange"
	AccentRed    Accent = "red"
	AccentPurple Accent = "purple"
	AccentPink   Accent = "pink"
	AccentYellow Accent = "yellow"
	AccentTeal   Accent = "teal"
)

// Valid reports whether a is empty or one of the supported accents.
func (a Accent) Valid() bool {
	switch a {
	case AccentNone, AccentBlue, AccentGreen, AccentOrange, AccentRed,
		AccentPurple, AccentPink, AccentYellow, AccentTeal:
		return true
	}
	return false
}

// Standard palette categories.
const (
	CategorySuggested    = "Suggested"
	CategoryApplications = "Applications"
	CategoryCommands     = "Commands"
	CategoryDocks        = "Docks"
	CategoryQuickLinks   = "Quick Links"
	CategoryCalculations = "Calculations"
	CategoryConversions  = "Conversions"
	CategoryUtilities    = "Utilities"
	CategoryFiles        = "Files"
	CategoryClipboard    = "Clipboard"
	CategorySnippets     = "Snippets"
	CategoryThemes       = "Themes"
	CategorySystem       = "System"
)

// Action is a static or inline palette entry.
type Action struct {
	ID       string
	Title    string
	Subtitle string
	Keywords []string // matched case-insensitively
	Category string

	// Priority orders entries within a category, higher first. Built-in
	// commands use 100 and above.
	Priority int

	// RequiresActivation focuses the dock before the action runs.
	RequiresActivation bool

	// HasDrillDown opens the dock's sub-view instead of executing.
	HasDrillDown bool

	ShortcutHint string // display only, e.g. "⌘⇧P"
	InlineResult string // shown in the row without selecting, e.g. "= 42"
	Accent       Accent
}

// Result is a live search result produced for a single query.
type Result struct {
	ID       string
	Title    string
	Subtitle string
	Category string
	Priority int

	HasDrillDown bool
	ShortcutHint string
	InlineResult string
	Accent       Accent

	// Run executes the result when selected. May be nil.
	Run func(ctx context.Context) error
}

// Query is what a SearchProvider receives.
type Query struct {
	Text  string // lowercased search text
	Raw   string // search text as typed, trimmed
	Scope string // action ID when drilled into this dock, empty otherwise
}
