// registry.go holds the per-dock palette contributions.
//
// Separated from engine.go because registration and searching have different
// callers. Docks and the lifecycle controller write here; the engine only
// reads copies.
//
// Design: everything a dock contributes lives in one entry keyed by its
// identifier, so unloading is a single map delete. Providers are consulted in
// the order their docks were attached.

package palette

import (
	"fmt"
	"slices"
	"sync"

	"github.com/jpl-au/dock/extension"
)

type entry struct {
	statics     []extension.Action
	inlines     map[string]extension.Action
	inlineOrder []string

	provider    extension.SearchProvider
	executor    extension.ActionExecutor
	subview     extension.SubViewProvider
	observer    extension.PaletteObserver
	placeholder string
}

// Registry stores static actions, inline registrations and providers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // docks in attach order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// get returns the entry for ext, creating it. Must hold r.mu.
func (r *Registry) get(ext string) *entry {
	e, ok := r.entries[ext]
	if !ok {
		e = &entry{inlines: make(map[string]extension.Action)}
		r.entries[ext] = e
		r.order = append(r.order, ext)
	}
	return e
}

func normalize(a extension.Action) extension.Action {
	if a.Category == "" {
		a.Category = extension.CategoryCommands
	}
	a.Keywords = slices.Clone(a.Keywords)
	return a
}

func validate(a extension.Action) error {
	if a.ID == "" {
		return fmt.Errorf("%w: empty id (title %q)", ErrInvalidAction, a.Title)
	}
	if !a.Accent.Valid() {
		return fmt.Errorf("%w: %s: unknown accent %q", ErrInvalidAction, a.ID, a.Accent)
	}
	return nil
}

// RegisterActions replaces ext's static actions wholesale.
// Nothing is replaced if any action is invalid.
func (r *Registry) RegisterActions(ext string, actions []extension.Action) error {
	list := make([]extension.Action, 0, len(actions))
	for _, a := range actions {
		if err := validate(a); err != nil {
			return err
		}
		list = append(list, normalize(a))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(ext).statics = list
	return nil
}

// RegisterInline adds or replaces one inline registration.
func (r *Registry) RegisterInline(ext string, a extension.Action) error {
	if err := validate(a); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(ext)
	if _, ok := e.inlines[a.ID]; !ok {
		e.inlineOrder = append(e.inlineOrder, a.ID)
	}
	e.inlines[a.ID] = normalize(a)
	return nil
}

// RemoveInline removes one inline registration. Unknown IDs are ignored.
func (r *Registry) RemoveInline(ext, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[ext]
	if !ok {
		return
	}
	if _, ok := e.inlines[id]; !ok {
		return
	}
	delete(e.inlines, id)
	e.inlineOrder = slices.DeleteFunc(e.inlineOrder, func(s string) bool { return s == id })
}

// RegisterProvider sets ext's dynamic search provider.
func (r *Registry) RegisterProvider(ext string, p extension.SearchProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(ext).provider = p
}

// Attach records every palette-related hook of a dock and reads its static
// actions. Invalid actions are reported and the dock keeps no statics.
// Call it on the dock's runner since it calls into dock code.
func (r *Registry) Attach(ext string, h extension.Hooks) error {
	var statics []extension.Action
	if h.Actions != nil {
		statics = h.Actions.Actions()
	}
	var placeholder string
	if h.Placeholder != nil {
		placeholder = h.Placeholder.Placeholder()
	}

	r.mu.Lock()
	e := r.get(ext)
	e.provider = h.Search
	e.executor = h.Executor
	e.subview = h.SubView
	e.observer = h.Observer
	e.placeholder = placeholder
	r.mu.Unlock()

	return r.RegisterActions(ext, statics)
}

// UnregisterAll removes everything ext contributed.
func (r *Registry) UnregisterAll(ext string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[ext]; !ok {
		return
	}
	delete(r.entries, ext)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == ext })
}

// Detach is UnregisterAll.
func (r *Registry) Detach(ext string) {
	r.UnregisterAll(ext)
}

// Actions returns a copy of ext's static actions.
func (r *Registry) Actions(ext string) []extension.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[ext]
	if !ok {
		return nil
	}
	return slices.Clone(e.statics)
}

// Inlines returns a copy of ext's inline registrations in registration order.
func (r *Registry) Inlines(ext string) []extension.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[ext]
	if !ok {
		return nil
	}
	out := make([]extension.Action, 0, len(e.inlineOrder))
	for _, id := range e.inlineOrder {
		out = append(out, e.inlines[id])
	}
	return out
}

// Providers returns the docks with a search provider, in attach order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, ext := range r.order {
		if r.entries[ext].provider != nil {
			out = append(out, ext)
		}
	}
	return out
}

// Placeholder returns ext's palette placeholder text.
func (r *Registry) Placeholder(ext string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[ext]; ok {
		return e.placeholder
	}
	return ""
}

// Docks returns every dock with a registry entry, in attach order.
func (r *Registry) Docks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// snapshot is a copy of one entry taken for a dispatch.
type snapshot struct {
	ext      string
	statics  []extension.Action
	inlines  []extension.Action
	provider extension.SearchProvider
	executor extension.ActionExecutor
}

// snapshots copies the entries in attach order, limited to one dock when
// only is set.
func (r *Registry) snapshots(only string) []snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []snapshot
	for _, ext := range r.order {
		if only != "" && ext != only {
			continue
		}
		e := r.entries[ext]
		s := snapshot{
			ext:      ext,
			statics:  slices.Clone(e.statics),
			provider: e.provider,
			executor: e.executor,
		}
		for _, id := range e.inlineOrder {
			s.inlines = append(s.inlines, e.inlines[id])
		}
		out = append(out, s)
	}
	return out
}

func (r *Registry) executor(ext string) extension.ActionExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[ext]; ok {
		return e.executor
	}
	return nil
}

func (r *Registry) subView(ext string) extension.SubViewProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[ext]; ok {
		return e.subview
	}
	return nil
}

func (r *Registry) observers() map[string]extension.PaletteObserver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]extension.PaletteObserver)
	for ext, e := range r.entries {
		if e.observer != nil {
			out[ext] = e.observer
		}
	}
	return out
}
