// palette.go owns the host's palette session and the per-dock Palette
// service.
//
// The host keeps at most one open session, the one a front end shows.
// Docks drive it through their Palette service; the CLI opens its own
// short-lived sessions on the engine directly.

package host

import (
	"fmt"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/palette"
)

// OpenPalette opens the host session, or returns the one already open.
func (h *Host) OpenPalette() *palette.Session {
	h.palMu.Lock()
	defer h.palMu.Unlock()
	if h.session == nil {
		h.session = h.eng.Open()
	}
	return h.session
}

// ClosePalette closes the host session if one is open.
func (h *Host) ClosePalette() {
	h.palMu.Lock()
	s := h.session
	h.session = nil
	h.palMu.Unlock()
	if s != nil {
		s.Close()
	}
}

// PaletteVisible reports whether the host session is open.
func (h *Host) PaletteVisible() bool {
	h.palMu.Lock()
	defer h.palMu.Unlock()
	return h.session != nil
}

// paletteService is a dock's handle on the palette.
type paletteService struct {
	h *Host
	d *dock
}

func (p *paletteService) Show() {
	p.h.OpenPalette()
}

func (p *paletteService) ShowQuery(query string) {
	s := p.h.OpenPalette()
	s.Submit(query, func(_ palette.Results, err error) {
		if err != nil {
			log.Message(log.LevelWarning, p.d.id, fmt.Sprintf("palette query %q: %v", query, err))
		}
	})
}

func (p *paletteService) Hide() {
	p.h.ClosePalette()
}

func (p *paletteService) Toggle() {
	p.h.palMu.Lock()
	open := p.h.session != nil
	p.h.palMu.Unlock()
	if open {
		p.h.ClosePalette()
		return
	}
	p.h.OpenPalette()
}

func (p *paletteService) Visible() bool {
	return p.h.PaletteVisible()
}

func (p *paletteService) RegisterInline(a extension.Action) error {
	// Held across the registration so Detach cannot clear the registry in
	// between and leave this entry behind.
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	if p.d.closed {
		return ErrDetached
	}
	return p.h.reg.RegisterInline(p.d.id, a)
}

func (p *paletteService) RemoveInline(id string) {
	p.h.reg.RemoveInline(p.d.id, id)
}

// Refresh re-reads the dock's static actions. Before setup completes there
// is nothing to refresh; the actions are read when the dock attaches.
func (p *paletteService) Refresh() error {
	p.d.mu.Lock()
	ap, closed := p.d.hooks.Actions, p.d.closed
	p.d.mu.Unlock()
	if closed {
		return ErrDetached
	}
	if ap == nil {
		return nil
	}
	actions := ap.Actions()

	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	if p.d.closed {
		return ErrDetached
	}
	return p.h.reg.RegisterActions(p.d.id, actions)
}
