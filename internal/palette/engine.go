// Package palette implements the command palette aggregation engine.
//
// The engine merges three sources into one ordered list: static actions a
// dock declares at load, inline registrations a dock adds and removes at
// runtime, and dynamic results its search provider computes per query.
// Providers are called concurrently, each on its own dock's runner, and each
// is cut off after a fixed budget so one slow dock cannot hold up the rest.
//
// A cut-off provider is not disabled: the next dispatch calls it again. The
// call itself keeps running on the dock's runner until it returns, though,
// and that runner is serial. A provider that ignores ctx therefore makes its
// dock's later dispatches time out too, until the late call finishes. Only
// providers that return when ctx is done recover on the next dispatch.
//
//	reg := palette.NewRegistry()
//	eng := palette.NewEngine(reg, pool, ctl, host, palette.Options{})
//	s := eng.Open()
//	res, err := s.Dispatch(ctx, "time")
package palette

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jpl-au/dock/extension"
)

// Defaults for Options.
const (
	DefaultTimeout    = 50 * time.Millisecond
	DefaultMaxResults = 10
	DefaultDebounce   = 50 * time.Millisecond
)

// Runner executes work on a dock's serial execution context.
type Runner interface {
	Do(ctx context.Context, owner string, fn func() error) error
	Go(owner string, fn func()) bool
}

// Gate reports whether a dock's provider may be searched right now.
type Gate interface {
	Searchable(ext string) bool
}

// Activator brings a dock to the active state.
type Activator interface {
	Activate(ctx context.Context, ext string) error
}

// ErrorFunc receives provider failures and selection errors for logging.
type ErrorFunc func(ext string, err error)

// Options tunes the engine. Zero values take the defaults.
type Options struct {
	Timeout    time.Duration // per-provider budget
	MaxResults int           // per-provider result cap
	Categories []string      // fixed group order
	Debounce   time.Duration // Session.Submit delay
	OnError    ErrorFunc
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.Categories == nil {
		o.Categories = DefaultCategories
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	return o
}

// Engine searches the registry. It is safe for concurrent use; per
// interaction state lives in Session.
type Engine struct {
	reg  *Registry
	run  Runner
	gate Gate
	act  Activator
	opts Options
}

// NewEngine creates an engine.
func NewEngine(reg *Registry, run Runner, gate Gate, act Activator, opts Options) *Engine {
	return &Engine{reg: reg, run: run, gate: gate, act: act, opts: opts.withDefaults()}
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) report(ext string, err error) {
	if e.opts.OnError != nil {
		e.opts.OnError(ext, err)
	}
}

type providerOutcome struct {
	items    []Item
	timedOut bool
	failed   bool
}

// Search runs one dispatch. With a non-zero target only that dock's
// provider, statics and inlines are considered and the provider receives the
// target action as Query.Scope.
func (e *Engine) Search(ctx context.Context, query string, target Target) (Results, error) {
	raw := strings.TrimSpace(query)
	q := strings.ToLower(raw)
	snaps := e.reg.snapshots(target.Extension)

	// Fan out to providers concurrently; each runs on its own dock's runner.
	outcomes := make([]providerOutcome, len(snaps))
	var wg sync.WaitGroup
	for i, s := range snaps {
		if s.provider == nil || (e.gate != nil && !e.gate.Searchable(s.ext)) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = e.callProvider(ctx, s, extension.Query{Text: q, Raw: raw, Scope: target.Action})
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Results{}, err
	}

	res := Results{Query: query}
	if !target.IsZero() {
		t := target
		res.Target = &t
	}

	var items []Item
	for i, o := range outcomes {
		items = append(items, o.items...)
		if o.timedOut {
			res.TimedOut = append(res.TimedOut, snaps[i].ext)
		}
		if o.failed {
			res.Failed = append(res.Failed, snaps[i].ext)
		}
	}
	for _, s := range snaps {
		for _, a := range s.inlines {
			if matches(a, q) {
				it := fromAction(s.ext, a, KindInline)
				it.run = e.executeFunc(s.ext, s.executor, a.ID)
				items = append(items, it)
			}
		}
	}
	for _, s := range snaps {
		for _, a := range s.statics {
			if matches(a, q) {
				it := fromAction(s.ext, a, KindStatic)
				it.run = e.executeFunc(s.ext, s.executor, a.ID)
				items = append(items, it)
			}
		}
	}

	res.Groups = group(dedup(items), e.opts.Categories)
	return res, nil
}

func (e *Engine) callProvider(ctx context.Context, s snapshot, q extension.Query) providerOutcome {
	pctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	var found []extension.Result
	err := e.run.Do(pctx, s.ext, func() error {
		r, err := s.provider.Search(pctx, q)
		if err != nil {
			return err
		}
		found = r
		return nil
	})

	switch {
	case err == nil:
	case ctx.Err() != nil:
		// The whole dispatch was cancelled; nothing to report.
		return providerOutcome{}
	case errors.Is(err, context.DeadlineExceeded):
		e.report(s.ext, fmt.Errorf("%w after %s", ErrProviderTimeout, e.opts.Timeout))
		return providerOutcome{timedOut: true}
	default:
		e.report(s.ext, fmt.Errorf("search: %w", err))
		return providerOutcome{failed: true}
	}

	if len(found) > e.opts.MaxResults {
		found = found[:e.opts.MaxResults]
	}
	items := make([]Item, 0, len(found))
	for _, r := range found {
		if r.ID == "" {
			continue
		}
		it := fromResult(s.ext, r)
		if it.Category == "" {
			it.Category = extension.CategorySuggested
		}
		if !it.Accent.Valid() {
			it.Accent = extension.AccentNone
		}
		items = append(items, it)
	}
	return providerOutcome{items: items}
}

func (e *Engine) executeFunc(ext string, x extension.ActionExecutor, id string) func(context.Context) error {
	if x == nil {
		return nil
	}
	return func(context.Context) error {
		return x.ExecuteAction(id)
	}
}

// Execute runs an item's action on its dock's runner, activating the dock
// first when the item requires it. Drill-down items are not executed here;
// use Session.Select.
func (e *Engine) Execute(ctx context.Context, it Item) error {
	if it.RequiresActivation && e.act != nil {
		if err := e.act.Activate(ctx, it.Extension); err != nil {
			return fmt.Errorf("activate %s: %w", it.Extension, err)
		}
	}

	run := it.run
	if run == nil && it.Kind != KindDynamic {
		// Items built outside a dispatch, for example from a CLI argument.
		run = e.executeFunc(it.Extension, e.reg.executor(it.Extension), it.ID)
	}
	if run == nil {
		return fmt.Errorf("%s: %w", it.Key(), ErrNotExecutable)
	}

	err := e.run.Do(ctx, it.Extension, func() error { return run(ctx) })
	if err != nil {
		e.report(it.Extension, fmt.Errorf("execute %s: %w", it.ID, err))
	}
	return err
}

// SubView returns the surface a dock provides for a drill-down action, or
// nil when it provides none.
func (e *Engine) SubView(ctx context.Context, t Target) (extension.Surface, error) {
	p := e.reg.subView(t.Extension)
	if p == nil {
		return nil, nil
	}
	var s extension.Surface
	err := e.run.Do(ctx, t.Extension, func() error {
		v, err := p.SubView(t.Action)
		s = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// notify calls every palette observer on its own runner without waiting.
func (e *Engine) notify(show bool) {
	for ext, o := range e.reg.observers() {
		fn := o.PaletteDidHide
		if show {
			fn = o.PaletteWillShow
		}
		e.run.Go(ext, fn)
	}
}
