// item.go defines the merged result rows the engine produces.
//
// Separated from engine.go so the display model can be read on its own.
// Items are values copied out of the registry and provider responses;
// mutating one never affects registered state.

package palette

import (
	"context"
	"fmt"
	"strings"

	"github.com/jpl-au/dock/extension"
)

// Kind records where an item came from. Higher kinds win deduplication.
type Kind int

// Item sources in ascending precedence.
const (
	KindStatic Kind = iota
	KindInline
	KindDynamic
)

// String returns the source name.
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindInline:
		return "inline"
	case KindDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Item is one row in the palette.
type Item struct {
	Extension          string           `json:"extension"`
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Subtitle           string           `json:"subtitle,omitempty"`
	Category           string           `json:"category"`
	Priority           int              `json:"priority"`
	RequiresActivation bool             `json:"requires_activation,omitempty"`
	HasDrillDown       bool             `json:"has_drill_down,omitempty"`
	ShortcutHint       string           `json:"shortcut_hint,omitempty"`
	InlineResult       string           `json:"inline_result,omitempty"`
	Accent             extension.Accent `json:"accent,omitempty"`
	Kind               Kind             `json:"kind"`

	run func(ctx context.Context) error
}

// Key returns the deduplication key.
func (i Item) Key() Target {
	return Target{Extension: i.Extension, Action: i.ID}
}

// Target identifies an action of a dock, for example a drill-down target.
type Target struct {
	Extension string `json:"extension"`
	Action    string `json:"action"`
}

// IsZero reports whether t is unset.
func (t Target) IsZero() bool {
	return t.Extension == "" && t.Action == ""
}

// String returns "extension/action".
func (t Target) String() string {
	return t.Extension + "/" + t.Action
}

// ParseTarget reads "extension/action". The extension identifier may not
// contain a slash; the action identifier may.
func ParseTarget(s string) (Target, error) {
	ext, action, ok := strings.Cut(s, "/")
	if !ok || ext == "" || action == "" {
		return Target{}, fmt.Errorf("%w: target %q, want <dock-id>/<action-id>", ErrInvalidAction, s)
	}
	return Target{Extension: ext, Action: action}, nil
}

// Group is the items of one category, already sorted.
type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// Results is the ordered output of one dispatch.
type Results struct {
	Query  string  `json:"query"`
	Target *Target `json:"target,omitempty"`
	Groups []Group `json:"groups"`

	// TimedOut lists docks whose provider exceeded the budget.
	TimedOut []string `json:"timed_out,omitempty"`
	// Failed lists docks whose provider returned an error or panicked.
	Failed []string `json:"failed,omitempty"`
}

// Items returns every item in display order.
func (r Results) Items() []Item {
	var out []Item
	for _, g := range r.Groups {
		out = append(out, g.Items...)
	}
	return out
}

// Titles returns every title in display order.
func (r Results) Titles() []string {
	var out []string
	for _, g := range r.Groups {
		for _, it := range g.Items {
			out = append(out, it.Title)
		}
	}
	return out
}

// Find returns the item with key t.
func (r Results) Find(t Target) (Item, bool) {
	for _, g := range r.Groups {
		for _, it := range g.Items {
			if it.Key() == t {
				return it, true
			}
		}
	}
	return Item{}, false
}

// Len returns the total item count.
func (r Results) Len() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Items)
	}
	return n
}

func fromAction(ext string, a extension.Action, k Kind) Item {
	return Item{
		Extension:          ext,
		ID:                 a.ID,
		Title:              a.Title,
		Subtitle:           a.Subtitle,
		Category:           a.Category,
		Priority:           a.Priority,
		RequiresActivation: a.RequiresActivation,
		HasDrillDown:       a.HasDrillDown,
		ShortcutHint:       a.ShortcutHint,
		InlineResult:       a.InlineResult,
		Accent:             a.Accent,
		Kind:               k,
	}
}

func fromResult(ext string, r extension.Result) Item {
	return Item{
		Extension:    ext,
		ID:           r.ID,
		Title:        r.Title,
		Subtitle:     r.Subtitle,
		Category:     r.Category,
		Priority:     r.Priority,
		HasDrillDown: r.HasDrillDown,
		ShortcutHint: r.ShortcutHint,
		InlineResult: r.InlineResult,
		Accent:       r.Accent,
		Kind:         KindDynamic,
		run:          r.Run,
	}
}
