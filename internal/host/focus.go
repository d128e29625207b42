// focus.go implements the host focus policy.
//
// At most one dock is focused. Activating a dock resigns the one focused
// before it, after the new dock has become active, so a dock whose view
// fails to build never costs the previous dock its focus.

package host

import (
	"context"
	"errors"

	"github.com/jpl-au/dock/internal/lifecycle"
	"github.com/jpl-au/dock/internal/log"
)

// Activate focuses a dock.
func (h *Host) Activate(ctx context.Context, id string) error {
	h.focusMu.Lock()
	defer h.focusMu.Unlock()

	if err := h.ctl.Activate(ctx, id); err != nil {
		return err
	}
	prev := h.focused
	h.focused = id
	if prev == "" || prev == id {
		return nil
	}
	err := h.ctl.Resign(ctx, prev)
	if err != nil && !errors.Is(err, lifecycle.ErrNotFound) && !errors.Is(err, lifecycle.ErrInvalidTransition) {
		log.Event("host", "resign").Dock(prev).Write(err)
	}
	return nil
}

// Resign removes focus from the focused dock, if any.
func (h *Host) Resign(ctx context.Context) error {
	h.focusMu.Lock()
	defer h.focusMu.Unlock()
	if h.focused == "" {
		return nil
	}
	id := h.focused
	h.focused = ""
	return h.ctl.Resign(ctx, id)
}

// Focused returns the focused dock's identifier, or "" when none is. A
// dock that has started unloading is no longer focused.
func (h *Host) Focused() string {
	h.focusMu.Lock()
	defer h.focusMu.Unlock()
	if h.focused != "" && h.ctl.State(h.focused) != lifecycle.Active {
		return ""
	}
	return h.focused
}

// Wake activates and resigns every dock still in the Loaded state, leaving
// it Inactive. Loaded docks are neither searched nor routed to, so a front
// end without a visible dock list calls this before searching or routing.
// Focus is unchanged. Docks whose view fails to build stay Loaded and their
// errors are joined.
func (h *Host) Wake(ctx context.Context) error {
	h.focusMu.Lock()
	defer h.focusMu.Unlock()

	var errs []error
	for _, info := range h.ctl.List() {
		id := info.Identity.ID
		if info.State != lifecycle.Loaded {
			continue
		}
		err := h.ctl.Activate(ctx, id)
		if err == nil {
			err = h.ctl.Resign(ctx, id)
		}
		log.Event("host", "wake").Dock(id).Write(err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
