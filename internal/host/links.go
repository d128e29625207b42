// links.go routes dock:// deep links.
//
// A link's authority names the dock: dock://com.jpl.notes/new?text=hi goes
// to com.jpl.notes. Links only reach docks that are Active or Inactive;
// a dock that is still loading or already unloading is not a route.

package host

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jpl-au/dock/internal/log"
)

// Scheme is the deep link URL scheme.
const Scheme = "dock"

// OpenURL routes a deep link to its dock and waits for the dock to handle
// it. The dock is not focused by routing.
func (h *Host) OpenURL(ctx context.Context, rawURL string) error {
	err := h.openURL(ctx, rawURL)
	log.Event("host", "open-url").Detail("url", rawURL).Write(err)
	return err
}

func (h *Host) openURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoRoute, err)
	}
	if u.Scheme != Scheme {
		return fmt.Errorf("%w: scheme %q", ErrNoRoute, u.Scheme)
	}
	id := u.Host
	if id == "" || !h.ctl.Routable(id) {
		return fmt.Errorf("%w: %q", ErrNoRoute, id)
	}
	d, ok := h.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoRoute, id)
	}
	d.mu.Lock()
	lh := d.hooks.Links
	d.mu.Unlock()
	if lh == nil {
		return fmt.Errorf("%w: %s handles no links", ErrNoRoute, id)
	}

	ctx, cancel := h.bounded(ctx)
	defer cancel()
	var handled bool
	err = h.Run(ctx, id, func() error {
		handled = lh.HandleURL(u)
		return nil
	})
	if err != nil {
		return err
	}
	if !handled {
		return fmt.Errorf("%w: %s declined %s", ErrNoRoute, id, u.Path)
	}
	return nil
}
