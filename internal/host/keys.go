// keys.go dispatches key bindings.
//
// Bindings belong to the dock that registered them and only fire while it
// is focused. A user can remap any binding in config; an override that does
// not parse is logged and the dock's own chord is kept.

package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
)

// Binding is a key binding as the host dispatches it.
type Binding struct {
	Dock     string `json:"dock"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Chord    string `json:"chord"`
	Category string `json:"category,omitempty"`
	Override bool   `json:"override,omitempty"`
}

func (h *Host) applyOverrides(dock string, in []extension.KeyBinding) []extension.KeyBinding {
	out := make([]extension.KeyBinding, 0, len(in))
	for _, b := range in {
		if b.ID == "" || b.Run == nil {
			log.Message(log.LevelWarning, dock, fmt.Sprintf("key binding %q skipped: needs an ID and Run", b.Title))
			continue
		}
		if s, ok := h.cfg.KeyOverride(dock, b.ID); ok {
			c, err := extension.ParseChord(s)
			if err != nil {
				log.Event("host", "key-override").Dock(dock).Detail("binding", b.ID).Write(err)
				log.Message(log.LevelWarning, dock, err.Error())
			} else {
				b.Key = c.Key
				b.Modifiers = c.Modifiers
			}
		}
		out = append(out, b)
	}
	return out
}

// Bindings lists every attached dock's key bindings, overrides applied.
func (h *Host) Bindings() []Binding {
	var out []Binding
	for _, d := range h.attached() {
		d.mu.Lock()
		for _, b := range d.bindings {
			_, over := h.cfg.KeyOverride(d.id, b.ID)
			out = append(out, Binding{
				Dock:     d.id,
				ID:       b.ID,
				Title:    b.Title,
				Chord:    b.Display(),
				Category: b.Category,
				Override: over,
			})
		}
		d.mu.Unlock()
	}
	return out
}

// PressKey fires the focused dock's binding for chord, written as
// "cmd+shift+k". It returns the binding that ran.
func (h *Host) PressKey(ctx context.Context, chord string) (Binding, error) {
	c, err := extension.ParseChord(chord)
	if err != nil {
		return Binding{}, err
	}
	id := h.Focused()
	if id == "" {
		return Binding{}, ErrNoFocus
	}
	d, ok := h.lookup(id)
	if !ok {
		return Binding{}, ErrNoFocus
	}

	var match *extension.KeyBinding
	d.mu.Lock()
	for i := range d.bindings {
		b := d.bindings[i]
		if strings.EqualFold(b.Key, c.Key) && b.Modifiers == c.Modifiers {
			match = &b
			break
		}
	}
	d.mu.Unlock()
	if match == nil {
		return Binding{}, fmt.Errorf("%w: %s in %s", ErrNoBinding, c.Display(), id)
	}

	ctx, cancel := h.bounded(ctx)
	defer cancel()
	err = h.Run(ctx, id, match.Run)
	log.Event("host", "press").Dock(id).Detail("binding", match.ID).Write(err)
	return Binding{Dock: id, ID: match.ID, Title: match.Title, Chord: match.Display(), Category: match.Category}, err
}

// MenuItems returns the focused dock's menu items.
func (h *Host) MenuItems(ctx context.Context) ([]extension.MenuItem, error) {
	id := h.Focused()
	if id == "" {
		return nil, ErrNoFocus
	}
	d, ok := h.lookup(id)
	if !ok {
		return nil, ErrNoFocus
	}
	d.mu.Lock()
	mp := d.hooks.Menu
	d.mu.Unlock()
	if mp == nil {
		return nil, nil
	}

	ctx, cancel := h.bounded(ctx)
	defer cancel()
	var items []extension.MenuItem
	err := h.Run(ctx, id, func() error {
		items = mp.MenuItems()
		return nil
	})
	return items, err
}
