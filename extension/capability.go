// capability.go resolves the optional interfaces a dock implements.
//
// Separated from extension.go so the interface declarations stay readable.
// HooksOf runs once at load time; the lifecycle controller, palette and host
// then use the cached Hooks instead of type-asserting on every call. A nil
// field in Hooks is the explicit "not supported" branch.

package extension

import "strings"

// Capability is one optional behaviour a dock may support.
type Capability uint32

// Optional capabilities.
const (
	CapActivate Capability = 1 << iota
	CapResign
	CapUnload
	CapLinks
	CapKeyBindings
	CapActions
	CapExecute
	CapSearch
	CapSubView
	CapPaletteObserver
	CapCategories
	CapPlaceholder
	CapMenu
	CapCommands
	CapTools
)

var capabilityNames = []struct {
	c    Capability
	name string
}{
	{CapActivate, "activate"},
	{CapResign, "resign"},
	{CapUnload, "unload"},
	{CapLinks, "links"},
	{CapKeyBindings, "keys"},
	{CapActions, "actions"},
	{CapExecute, "execute"},
	{CapSearch, "search"},
	{CapSubView, "subview"},
	{CapPaletteObserver, "palette-observer"},
	{CapCategories, "categories"},
	{CapPlaceholder, "placeholder"},
	{CapMenu, "menu"},
	{CapCommands, "commands"},
	{CapTools, "tools"},
}

// Capabilities is the set of optional behaviours a dock supports.
type Capabilities uint32

// Has reports whether c is in the set.
func (s Capabilities) Has(c Capability) bool {
	return uint32(s)&uint32(c) != 0
}

// Names returns the set members in declaration order.
func (s Capabilities) Names() []string {
	var names []string
	for _, n := range capabilityNames {
		if s.Has(n.c) {
			names = append(names, n.name)
		}
	}
	return names
}

// String returns a comma separated list of capability names.
func (s Capabilities) String() string {
	return strings.Join(s.Names(), ",")
}

// Hooks caches a dock's optional interfaces. Fields are nil when the dock
// does not implement the corresponding interface.
type Hooks struct {
	Caps Capabilities

	Activator   Activator
	Resigner    Resigner
	Unloader    Unloader
	Links       LinkHandler
	Keys        KeyBinder
	Actions     ActionProvider
	Executor    ActionExecutor
	Search      SearchProvider
	SubView     SubViewProvider
	Observer    PaletteObserver
	Categories  CategoryProvider
	Placeholder PlaceholderProvider
	Menu        MenuProvider
	Commands    Commander
	Tools       ToolProvider
}

// HooksOf resolves the optional interfaces implemented by e.
func HooksOf(e Extension) Hooks {
	var h Hooks
	if v, ok := e.(Activator); ok {
		h.Activator = v
		h.Caps |= Capabilities(CapActivate)
	}
	if v, ok := e.(Resigner); ok {
		h.Resigner = v
		h.Caps |= Capabilities(CapResign)
	}
	if v, ok := e.(Unloader); ok {
		h.Unloader = v
		h.Caps |= Capabilities(CapUnload)
	}
	if v, ok := e.(LinkHandler); ok {
		h.Links = v
		h.Caps |= Capabilities(CapLinks)
	}
	if v, ok := e.(KeyBinder); ok {
		h.Keys = v
		h.Caps |= Capabilities(CapKeyBindings)
	}
	if v, ok := e.(ActionProvider); ok {
		h.Actions = v
		h.Caps |= Capabilities(CapActions)
	}
	if v, ok := e.(ActionExecutor); ok {
		h.Executor = v
		h.Caps |= Capabilities(CapExecute)
	}
	if v, ok := e.(SearchProvider); ok {
		h.Search = v
		h.Caps |= Capabilities(CapSearch)
	}
	if v, ok := e.(SubViewProvider); ok {
		h.SubView = v
		h.Caps |= Capabilities(CapSubView)
	}
	if v, ok := e.(PaletteObserver); ok {
		h.Observer = v
		h.Caps |= Capabilities(CapPaletteObserver)
	}
	if v, ok := e.(CategoryProvider); ok {
		h.Categories = v
		h.Caps |= Capabilities(CapCategories)
	}
	if v, ok := e.(PlaceholderProvider); ok {
		h.Placeholder = v
		h.Caps |= Capabilities(CapPlaceholder)
	}
	if v, ok := e.(MenuProvider); ok {
		h.Menu = v
		h.Caps |= Capabilities(CapMenu)
	}
	if v, ok := e.(Commander); ok {
		h.Commands = v
		h.Caps |= Capabilities(CapCommands)
	}
	if v, ok := e.(ToolProvider); ok {
		h.Tools = v
		h.Caps |= Capabilities(CapTools)
	}
	return h
}
