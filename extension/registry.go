// registry.go implements the compiled-in dock registry.
//
// Separated from extension.go to isolate the global registry state and
// thread-safe access patterns. Docks self-register during init(), before
// main() runs, with their manifest identity and a factory. The host creates a
// fresh instance from the factory for every load.
//
// Design: The registry uses panic-on-duplicate following database/sql.Register
// conventions. Two docks compiled in with the same identifier is a programmer
// error, not a runtime condition. Runtime uniqueness (one live instance per
// identifier) is enforced separately by the lifecycle controller.

package extension

import "sync"

// Factory constructs a new dock instance.
type Factory func() Extension

// Registration pairs a dock's identity with its factory.
type Registration struct {
	Identity Identity
	New      Factory
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Registration)
	order    []string // preserve registration order
)

// Register adds a dock to the registry. Called from init() functions.
// Panics if the identifier is already registered or the factory is nil.
func Register(id Identity, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if f == nil {
		panic("extension factory is nil: " + id.ID)
	}
	if _, exists := registry[id.ID]; exists {
		panic("extension already registered: " + id.ID)
	}

	registry[id.ID] = Registration{Identity: id, New: f}
	order = append(order, id.ID)
}

// All returns all registrations in registration order.
func All() []Registration {
	mu.RLock()
	defer mu.RUnlock()

	regs := make([]Registration, 0, len(order))
	for _, id := range order {
		regs = append(regs, registry[id])
	}
	return regs
}

// Get returns a registration by identifier.
func Get(id string) (Registration, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := registry[id]
	return r, ok
}

// IDs returns the identifiers of all registered docks.
func IDs() []string {
	mu.RLock()
	defer mu.RUnlock()

	ids := make([]string, len(order))
	copy(ids, order)
	return ids
}
