// Package lifecycle owns the state of every loaded dock.
//
// The controller is the only component that changes a dock's state and the
// only one that calls its lifecycle hooks. Each transition is serialised per
// dock by that dock's record lock, while state reads go through an atomic so
// the palette and router never wait on a transition in progress.
//
// All dock code (setup, view, hooks) runs on the dock's own runner and is
// bounded by the hook timeout. Failures of optional hooks are logged and the
// transition completes anyway; only setup and the first view can fail a
// transition.
//
// Unloading is two-phase. BeginUnload detaches the dock from the bus, the
// palette and every other attacher before calling its teardown hook, so no
// notification or search reaches a dock that is tearing down. FinishUnload
// then closes its runner and forgets it, after which the identifier may be
// loaded again.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/log"
	"github.com/jpl-au/dock/internal/version"
)

// DefaultHookTimeout bounds each lifecycle hook.
const DefaultHookTimeout = 2 * time.Second

// Runner provides one serial execution context per dock.
type Runner interface {
	Open(owner string)
	Do(ctx context.Context, owner string, fn func() error) error
	Close(owner string)
}

// Bus is the part of the notification bus the controller drives.
type Bus interface {
	Publish(name string, payload []byte)
	RemoveAll(owner string) int
}

// Contexts builds the context handed to a dock's setup.
type Contexts interface {
	NewContext(id extension.Identity, required []string) extension.Context
}

// Attacher receives a dock's hooks once setup succeeds and is told to drop
// them when unloading begins. Attach runs on the dock's runner.
type Attacher interface {
	Attach(id string, h extension.Hooks) error
	Detach(id string)
}

// Options configures a Controller.
type Options struct {
	Runner      Runner
	Bus         Bus
	Contexts    Contexts
	Attachers   []Attacher
	SDKVersion  string        // defaults to version.SDK
	HookTimeout time.Duration // defaults to DefaultHookTimeout
}

type record struct {
	mu sync.Mutex // held for the duration of a transition

	id       extension.Identity
	ext      extension.Extension
	hooks    extension.Hooks
	loadedAt time.Time

	// Set before the record leaves Unloaded and read without mu.
	required []string
	capNames []string

	state     atomic.Int32
	surface   extension.Surface
	viewed    bool
	activated atomic.Bool // ever activated
}

func (r *record) get() State  { return State(r.state.Load()) }
func (r *record) set(s State) { r.state.Store(int32(s)) }

// Controller drives dock lifecycles.
type Controller struct {
	opts Options

	mu      sync.RWMutex
	records map[string]*record
	order   []string // load order
}

// New creates a controller.
func New(opts Options) *Controller {
	if opts.SDKVersion == "" {
		opts.SDKVersion = version.SDK
	}
	if opts.HookTimeout <= 0 {
		opts.HookTimeout = DefaultHookTimeout
	}
	return &Controller{opts: opts, records: make(map[string]*record)}
}

// AddAttacher registers another attacher. Call before loading docks.
func (c *Controller) AddAttacher(a Attacher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Attachers = append(c.opts.Attachers, a)
}

func (c *Controller) lookup(id string) (*record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return r, nil
}

func (c *Controller) attachers() []Attacher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.opts.Attachers)
}

func (c *Controller) emit(topic, id string) {
	if c.opts.Bus != nil {
		c.opts.Bus.Publish(topic, []byte(id))
	}
}

// hook runs fn on the dock's runner bounded by the hook timeout.
func (c *Controller) hook(ctx context.Context, id, name string, fn func() error) error {
	hctx, cancel := context.WithTimeout(ctx, c.opts.HookTimeout)
	defer cancel()
	err := c.opts.Runner.Do(hctx, id, fn)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%s exceeded %s", name, c.opts.HookTimeout)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// optional runs an optional hook and logs its failure without returning it.
func (c *Controller) optional(ctx context.Context, id, name string, fn func() error) {
	if err := c.hook(ctx, id, name, fn); err != nil {
		log.Event("lifecycle", name).Dock(id).Write(err)
		log.Message(log.LevelWarning, id, err.Error())
		c.emit(extension.TopicError, id)
	}
}

// attachGate makes attaching and abandoning a failed load mutually exclusive.
type attachGate struct {
	mu        sync.Mutex
	abandoned bool
}

func (g *attachGate) run(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return nil
	}
	return fn()
}

func (g *attachGate) abandon() {
	g.mu.Lock()
	g.abandoned = true
	g.mu.Unlock()
}

// Load instantiates a registered dock, checks compatibility and runs its
// setup. On success the dock is Loaded. A concurrent Load of the same
// identifier waits for the first one to settle.
func (c *Controller) Load(ctx context.Context, reg extension.Registration) error {
	id := reg.Identity
	rec, err := c.reserve(id)
	if err != nil {
		log.Event("lifecycle", "load").Dock(id.ID).Write(err)
		if errors.Is(err, ErrIncompatibleVersion) {
			c.emit(extension.TopicError, id.ID)
		}
		return err
	}
	defer rec.mu.Unlock()

	err = c.setup(ctx, rec, reg.New)
	log.Event("lifecycle", "load").
		Dock(id.ID).
		Detail("version", id.Version).
		Detail("capabilities", rec.hooks.Caps.String()).
		Write(err)
	if err != nil {
		c.forget(rec)
		c.emit(extension.TopicError, id.ID)
		return err
	}

	rec.capNames = rec.hooks.Caps.Names()
	rec.set(Loaded)
	c.emit(extension.TopicLoaded, id.ID)
	return nil
}

// reserve inserts a new locked record for id, or fails.
func (c *Controller) reserve(id extension.Identity) (*record, error) {
	for {
		c.mu.Lock()
		existing, ok := c.records[id.ID]
		if !ok {
			if compat := extension.CheckCompatibility(id, c.opts.SDKVersion); !compat.Compatible() {
				c.mu.Unlock()
				return nil, fmt.Errorf("%s: %w: %s", id.ID, ErrIncompatibleVersion, compat.Reason)
			}
			rec := &record{id: id, loadedAt: time.Now()}
			rec.mu.Lock()
			c.records[id.ID] = rec
			c.order = append(c.order, id.ID)
			c.mu.Unlock()
			return rec, nil
		}
		c.mu.Unlock()

		// Wait for any transition in progress, then look again: a failed
		// load or a finished unload removes the record.
		existing.mu.Lock()
		existing.mu.Unlock()

		c.mu.RLock()
		still := c.records[id.ID] == existing
		c.mu.RUnlock()
		if still {
			return nil, fmt.Errorf("%s: %w", id.ID, ErrDuplicateIdentifier)
		}
	}
}

func (c *Controller) setup(ctx context.Context, rec *record, factory extension.Factory) error {
	id := rec.id.ID
	c.opts.Runner.Open(id)

	var ext extension.Extension
	err := c.hook(ctx, id, "setup", func() error {
		ext = factory()
		if ext == nil {
			return errors.New("factory returned nil")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w: %w", id, ErrHookFailure, err)
	}

	rec.ext = ext
	rec.hooks = extension.HooksOf(ext)
	if r, ok := ext.(extension.Requirer); ok {
		rec.required = r.RequiredCapabilities()
	}

	var xc extension.Context
	if c.opts.Contexts != nil {
		xc = c.opts.Contexts.NewContext(rec.id, rec.required)
	}
	attachers := c.attachers()
	gate := &attachGate{}

	err = c.hook(ctx, id, "setup", func() error {
		if err := ext.Setup(xc); err != nil {
			return err
		}
		return gate.run(func() error {
			var errs []error
			for _, a := range attachers {
				if err := a.Attach(id, rec.hooks); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	})
	if err != nil {
		gate.abandon()
		return fmt.Errorf("%s: %w: %w", id, ErrHookFailure, err)
	}
	return nil
}

// forget detaches a dock whose load failed and removes its record.
func (c *Controller) forget(rec *record) {
	id := rec.id.ID
	c.detach(id)
	c.opts.Runner.Close(id)
	rec.set(Unloaded)
	c.remove(rec)
}

func (c *Controller) detach(id string) {
	if c.opts.Bus != nil {
		c.opts.Bus.RemoveAll(id)
	}
	for _, a := range c.attachers() {
		a.Detach(id)
	}
}

func (c *Controller) remove(rec *record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.records[rec.id.ID] != rec {
		return
	}
	delete(c.records, rec.id.ID)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == rec.id.ID })
}

// Activate makes the dock Active. The first activation creates and caches
// its surface; if that fails the dock stays where it was. Activating an
// Active dock is a no-op.
func (c *Controller) Activate(ctx context.Context, id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	switch st := rec.get(); st {
	case Active:
		return nil
	case Loaded, Inactive:
	default:
		return fmt.Errorf("%s: %w: activate from %s", id, ErrInvalidTransition, st)
	}

	if !rec.viewed {
		var surface extension.Surface
		err := c.hook(ctx, id, "view", func() error {
			s, err := rec.ext.View()
			surface = s
			return err
		})
		if err != nil {
			err = fmt.Errorf("%s: %w: %w", id, ErrHookFailure, err)
			log.Event("lifecycle", "activate").Dock(id).Write(err)
			c.emit(extension.TopicError, id)
			return err
		}
		rec.surface = surface
		rec.viewed = true
	}

	rec.set(Active)
	rec.activated.Store(true)
	if h := rec.hooks.Activator; h != nil {
		c.optional(ctx, id, "did-become-active", h.DidBecomeActive)
	}
	log.Event("lifecycle", "activate").Dock(id).Write(nil)
	c.emit(extension.TopicActivated, id)
	return nil
}

// Resign moves an Active dock to Inactive. Resigning an Inactive dock is a
// no-op.
func (c *Controller) Resign(ctx context.Context, id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	switch st := rec.get(); st {
	case Inactive:
		return nil
	case Active:
	default:
		return fmt.Errorf("%s: %w: resign from %s", id, ErrInvalidTransition, st)
	}

	rec.set(Inactive)
	if h := rec.hooks.Resigner; h != nil {
		c.optional(ctx, id, "did-resign-active", h.DidResignActive)
	}
	log.Event("lifecycle", "resign").Dock(id).Write(nil)
	c.emit(extension.TopicResigned, id)
	return nil
}

// BeginUnload moves the dock to Unloading. It detaches every subscription
// and palette contribution first, then calls the teardown hook if the dock
// was ever activated. Calling it on an Unloading dock, or on one whose
// unload finished while this call waited, is a no-op.
func (c *Controller) BeginUnload(ctx context.Context, id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !c.current(rec) {
		return nil
	}
	return c.beginUnload(ctx, rec)
}

// FinishUnload closes the dock's runner and forgets it. The dock must be
// Unloading; one whose unload finished while this call waited is a no-op.
func (c *Controller) FinishUnload(ctx context.Context, id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !c.current(rec) {
		return nil
	}
	return c.finishUnload(ctx, rec)
}

// Unload runs both unload phases under one hold of the record lock, so a
// concurrent Unload of the same dock waits and then returns nil.
func (c *Controller) Unload(ctx context.Context, id string) error {
	rec, err := c.lookup(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !c.current(rec) {
		return nil
	}
	if err := c.beginUnload(ctx, rec); err != nil {
		return err
	}
	return c.finishUnload(ctx, rec)
}

// current reports whether rec is still the live record for its identifier.
// It is false once the record was forgotten by a failed load or an unload.
func (c *Controller) current(rec *record) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[rec.id.ID] == rec
}

// beginUnload requires rec.mu.
func (c *Controller) beginUnload(ctx context.Context, rec *record) error {
	id := rec.id.ID
	switch st := rec.get(); st {
	case Unloading:
		return nil
	case Loaded, Active, Inactive:
	default:
		return fmt.Errorf("%s: %w: unload from %s", id, ErrInvalidTransition, st)
	}

	rec.set(Unloading)
	c.detach(id)
	if h := rec.hooks.Unloader; h != nil && rec.activated.Load() {
		c.optional(ctx, id, "will-unload", h.WillUnload)
	}
	log.Event("lifecycle", "begin-unload").Dock(id).Write(nil)
	return nil
}

// finishUnload requires rec.mu.
func (c *Controller) finishUnload(_ context.Context, rec *record) error {
	id := rec.id.ID
	if st := rec.get(); st != Unloading {
		return fmt.Errorf("%s: %w: finish unload from %s", id, ErrInvalidTransition, st)
	}

	c.opts.Runner.Close(id)
	rec.set(Unloaded)
	rec.surface = nil
	c.remove(rec)
	log.Event("lifecycle", "unload").Dock(id).Write(nil)
	c.emit(extension.TopicUnloaded, id)
	return nil
}

// UnloadAll unloads every dock in reverse load order.
func (c *Controller) UnloadAll(ctx context.Context) error {
	c.mu.RLock()
	ids := slices.Clone(c.order)
	c.mu.RUnlock()

	var errs []error
	for _, id := range slices.Backward(ids) {
		if err := c.Unload(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// State returns the dock's state; unknown identifiers are Unloaded.
func (c *Controller) State(id string) State {
	rec, err := c.lookup(id)
	if err != nil {
		return Unloaded
	}
	return rec.get()
}

// Searchable reports whether the dock's provider may be searched.
func (c *Controller) Searchable(id string) bool {
	return c.State(id).Reachable()
}

// Routable reports whether deep links may be routed to the dock.
func (c *Controller) Routable(id string) bool {
	return c.State(id).Reachable()
}

// Surface returns the cached surface of a dock that has been activated.
func (c *Controller) Surface(id string) (extension.Surface, bool) {
	rec, err := c.lookup(id)
	if err != nil {
		return nil, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.surface, rec.viewed
}

// Info describes a loaded dock.
type Info struct {
	Identity     extension.Identity `json:"identity"`
	State        State              `json:"state"`
	Capabilities []string           `json:"capabilities"`
	Required     []string           `json:"required,omitempty"`
	Activated    bool               `json:"activated"`
	LoadedAt     time.Time          `json:"loaded_at"`
}

// List describes every dock in load order, skipping loads in progress. It
// never waits on a transition.
func (c *Controller) List() []Info {
	c.mu.RLock()
	recs := make([]*record, 0, len(c.order))
	for _, id := range c.order {
		recs = append(recs, c.records[id])
	}
	c.mu.RUnlock()

	out := make([]Info, 0, len(recs))
	for _, r := range recs {
		st := r.get()
		if st == Unloaded {
			continue // still loading
		}
		out = append(out, Info{
			Identity:     r.id,
			State:        st,
			Capabilities: slices.Clone(r.capNames),
			Required:     slices.Clone(r.required),
			Activated:    r.activated.Load(),
			LoadedAt:     r.loadedAt,
		})
	}
	return out
}

// LoadAll loads every registration, continuing past failures.
func (c *Controller) LoadAll(ctx context.Context, regs []extension.Registration) error {
	var errs []error
	for _, r := range regs {
		if err := c.Load(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
