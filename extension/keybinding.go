// keybinding.go defines keyboard shortcuts docks register with the host.
//
// Bindings are scoped: the host only dispatches a binding while its dock is
// the focused dock. Users can remap a binding in config under
// keys.<dock-id>.<binding-id>.

package extension

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChord is returned when a chord string cannot be parsed.
var ErrInvalidChord = errors.New("invalid key chord")

// Modifier is a bit set of keyboard modifiers.
type Modifier uint8

// Keyboard modifiers.
const (
	ModControl Modifier = 1 << iota
	ModOption
	ModShift
	ModCommand
)

// KeyBinding is a shortcut registered by a dock.
type KeyBinding struct {
	ID        string
	Title     string
	Key       string
	Modifiers Modifier
	Category  string

	// Run is executed on the dock's runner when the binding fires.
	Run func() error
}

// Display returns the conventional glyph form, e.g. "⌃⇧K".
func (b KeyBinding) Display() string {
	return Chord{Key: b.Key, Modifiers: b.Modifiers}.Display()
}

// Chord is a key plus modifiers, independent of any binding.
type Chord struct {
	Key       string
	Modifiers Modifier
}

// Display returns the glyph form, modifiers in ⌃⌥⇧⌘ order.
func (c Chord) Display() string {
	var b strings.Builder
	if c.Modifiers&ModControl != 0 {
		b.WriteString("⌃")
	}
	if c.Modifiers&ModOption != 0 {
		b.WriteString("⌥")
	}
	if c.Modifiers&ModShift != 0 {
		b.WriteString("⇧")
	}
	if c.Modifiers&ModCommand != 0 {
		b.WriteString("⌘")
	}
	b.WriteString(strings.ToUpper(c.Key))
	return b.String()
}

// ParseChord reads chords written as "cmd+shift+k" or "ctrl-alt-p".
// Modifier names are case-insensitive; the key is the last element.
func ParseChord(s string) (Chord, error) {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(s)), func(r rune) bool {
		return r == '+' || r == '-'
	})
	if len(fields) == 0 {
		return Chord{}, fmt.Errorf("%w: %q", ErrInvalidChord, s)
	}

	var c Chord
	for _, f := range fields[:len(fields)-1] {
		switch f {
		case "ctrl", "control":
			c.Modifiers |= ModControl
		case "alt", "opt", "option":
			c.Modifiers |= ModOption
		case "shift":
			c.Modifiers |= ModShift
		case "cmd", "command", "super", "meta":
			c.Modifiers |= ModCommand
		default:
			return Chord{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidChord, f)
		}
	}
	c.Key = fields[len(fields)-1]
	return c, nil
}
