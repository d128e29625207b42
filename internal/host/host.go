// Package host owns one instance of the dock coordination layer.
//
// A Host wires the runner pool, notification bus, palette registry and
// engine, lifecycle controller, storage and network client together, and
// supplies each dock with its Context. Everything a dock can reach goes
// through the host; docks never see each other directly.
//
//	h := host.New(host.Options{Config: cfg})
//	defer h.Shutdown(ctx)
//	err := h.LoadAll(ctx, extension.All())
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/bus"
	"github.com/jpl-au/dock/internal/config"
	"github.com/jpl-au/dock/internal/lifecycle"
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/netfetch"
	"github.com/jpl-au/dock/internal/palette"
	"github.com/jpl-au/dock/internal/runner"
	"github.com/jpl-au/dock/internal/storage"
	"github.com/jpl-au/dock/internal/version"
	"github.com/spf13/cobra"
)

// Options configures a Host.
type Options struct {
	// Config supplies timeouts, limits and key overrides. Nil uses defaults.
	Config *config.Config
	// StorageDir overrides the configured storage directory.
	StorageDir string
	// UI is the front end's presentation service. Nil logs and ignores.
	UI extension.UI
	// HTTP replaces the default HTTP client for dock fetches.
	HTTP *http.Client
}

// Host is the coordination layer shared by every dock.
type Host struct {
	cfg  *config.Config
	pool *runner.Pool
	bus  *bus.Bus
	reg  *palette.Registry
	eng  *palette.Engine
	ctl  *lifecycle.Controller
	net  *netfetch.Client
	ui   extension.UI

	storeMu  sync.Mutex
	storeDir string
	store    *storage.Store

	focusMu sync.Mutex
	focused string

	mu    sync.RWMutex
	docks map[string]*dock

	palMu   sync.Mutex
	session *palette.Session
}

// dock is the host's view of one loaded dock instance. A fresh value is
// created for every load so late calls from an unloaded instance hit a
// closed record instead of its successor.
type dock struct {
	id       string
	required []string

	mu       sync.Mutex
	closed   bool
	attached bool
	hooks    extension.Hooks
	bindings []extension.KeyBinding
	commands []*cobra.Command
	tools    []extension.MCPTool
}

// New creates a host. Storage is opened on first use.
func New(opts Options) *Host {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	h := &Host{
		cfg:      cfg,
		ui:       opts.UI,
		storeDir: opts.StorageDir,
		docks:    make(map[string]*dock),
	}
	if h.ui == nil {
		h.ui = ignoredUI{}
	}
	if h.storeDir == "" {
		h.storeDir = cfg.StorageDir()
	}

	h.pool = runner.New(h.onPanic)
	h.bus = bus.New(h.pool, bus.WithErrorFunc(func(owner, name string, err error) {
		log.Event("bus", "deliver").Dock(owner).Detail("topic", name).Write(err)
		log.Message(log.LevelError, owner, fmt.Sprintf("%s handler: %v", name, err))
	}))
	h.reg = palette.NewRegistry()
	h.ctl = lifecycle.New(lifecycle.Options{
		Runner:      h.pool,
		Bus:         h.bus,
		Contexts:    h,
		Attachers:   []lifecycle.Attacher{h, h.reg},
		HookTimeout: cfg.HookTimeout(),
	})
	h.eng = palette.NewEngine(h.reg, h.pool, h.ctl, h, palette.Options{
		Timeout:    cfg.ProviderTimeout(),
		MaxResults: cfg.MaxResults(),
		Categories: cfg.Categories(),
		Debounce:   cfg.Debounce(),
		OnError: func(ext string, err error) {
			log.Event("palette", "search").Dock(ext).Write(err)
			log.Message(log.LevelWarning, ext, err.Error())
		},
	})
	h.net = netfetch.New(h.pool, netfetch.Options{HTTP: opts.HTTP, UserAgent: cfg.UserAgent()})
	return h
}

func (h *Host) onPanic(owner string, v any) {
	err := fmt.Errorf("%w: %v", runner.ErrPanic, v)
	log.Event("runner", "panic").Dock(owner).Write(err)
	log.Message(log.LevelError, owner, err.Error())
}

// Config returns the host configuration.
func (h *Host) Config() *config.Config { return h.cfg }

// Bus returns the notification bus.
func (h *Host) Bus() *bus.Bus { return h.bus }

// Palette returns the palette engine.
func (h *Host) Palette() *palette.Engine { return h.eng }

// Lifecycle returns the lifecycle controller.
func (h *Host) Lifecycle() *lifecycle.Controller { return h.ctl }

// Runner returns the runner pool.
func (h *Host) Runner() *runner.Pool { return h.pool }

// SetStorageDir changes where storage is opened. It has no effect once
// storage has been opened.
func (h *Host) SetStorageDir(dir string) {
	h.storeMu.Lock()
	defer h.storeMu.Unlock()
	if h.store == nil && dir != "" {
		h.storeDir = dir
	}
}

// StorageDir returns the directory storage is, or will be, opened in.
func (h *Host) StorageDir() string {
	h.storeMu.Lock()
	defer h.storeMu.Unlock()
	return h.storeDir
}

// Storage opens the store on first call and returns it.
func (h *Host) Storage() (*storage.Store, error) {
	h.storeMu.Lock()
	defer h.storeMu.Unlock()
	if h.store != nil {
		return h.store, nil
	}
	s, err := storage.Open(h.storeDir)
	log.Event("host", "open-storage").Detail("dir", h.storeDir).Write(err)
	if err != nil {
		return nil, err
	}
	h.store = s
	return s, nil
}

// Load loads one registered dock.
func (h *Host) Load(ctx context.Context, reg extension.Registration) error {
	return h.ctl.Load(ctx, reg)
}

// LoadAll loads every registration in order, continuing past failures.
func (h *Host) LoadAll(ctx context.Context, regs []extension.Registration) error {
	return h.ctl.LoadAll(ctx, regs)
}

// Unload unloads a dock, clearing focus if it was focused.
func (h *Host) Unload(ctx context.Context, id string) error {
	h.focusMu.Lock()
	if h.focused == id {
		h.focused = ""
	}
	h.focusMu.Unlock()
	return h.ctl.Unload(ctx, id)
}

// Docks describes every loaded dock in load order.
func (h *Host) Docks() []lifecycle.Info {
	return h.ctl.List()
}

func (h *Host) lookup(id string) (*dock, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d, ok := h.docks[id]
	return d, ok
}

// attached returns the docks that completed setup, in load order.
func (h *Host) attached() []*dock {
	var out []*dock
	for _, info := range h.ctl.List() {
		d, ok := h.lookup(info.Identity.ID)
		if !ok {
			continue
		}
		d.mu.Lock()
		live := d.attached && !d.closed
		d.mu.Unlock()
		if live {
			out = append(out, d)
		}
	}
	return out
}

// Run executes fn on the dock's runner and waits for it.
func (h *Host) Run(ctx context.Context, id string, fn func() error) error {
	return h.pool.Do(ctx, id, fn)
}

// bounded limits a wait on dock code to the hook timeout.
func (h *Host) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.cfg.HookTimeout())
}

// Categories returns the categories docks declared, in load order and
// without duplicates.
func (h *Host) Categories() []string {
	var out []string
	for _, d := range h.attached() {
		d.mu.Lock()
		cp := d.hooks.Categories
		d.mu.Unlock()
		if cp == nil {
			continue
		}
		var cats []string
		ctx, cancel := h.bounded(context.Background())
		err := h.Run(ctx, d.id, func() error {
			cats = cp.Categories()
			return nil
		})
		cancel()
		if err != nil {
			continue
		}
		for _, c := range cats {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Shutdown unloads every dock, stops the runners and closes storage.
func (h *Host) Shutdown(ctx context.Context) error {
	h.ClosePalette()
	errs := []error{h.ctl.UnloadAll(ctx)}
	h.pool.Shutdown()

	h.storeMu.Lock()
	if h.store != nil {
		if err := h.store.Checkpoint(ctx); err != nil {
			errs = append(errs, fmt.Errorf("checkpoint storage: %w", err))
		}
		if err := h.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		h.store = nil
	}
	h.storeMu.Unlock()

	err := errors.Join(errs...)
	log.Event("host", "shutdown").Detail("version", version.Short()).Write(err)
	return err
}
