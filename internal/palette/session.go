// session.go tracks one open palette interaction.
//
// Separated from engine.go because the engine is stateless and shared while
// a session belongs to one interaction. A session moves Idle -> Browsing on
// Open, Browsing -> DrilledIn when a drill-down item is selected, back again
// on Back, and any state -> Idle on Close.
//
// Design: every dispatch takes a generation number. Starting a dispatch,
// changing the drill-down target or closing the session bumps the
// generation and cancels the in-flight dispatch, whose results are then
// discarded instead of overwriting newer ones.

package palette

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jpl-au/dock/extension"
)

// State is the session state.
type State int

// Session states.
const (
	StateIdle State = iota
	StateBrowsing
	StateDrilledIn
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBrowsing:
		return "browsing"
	case StateDrilledIn:
		return "drilled-in"
	default:
		return "unknown"
	}
}

// Session is one palette interaction. Create with Engine.Open.
type Session struct {
	e *Engine

	mu     sync.Mutex
	state  State
	query  string
	target Target
	cache  Results
	gen    uint64
	cancel context.CancelFunc
	timer  *time.Timer
}

// Open starts a session in the Browsing state and tells palette observers
// the palette is about to show.
func (e *Engine) Open() *Session {
	e.notify(true)
	return &Session{e: e, state: StateBrowsing}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Query returns the query of the most recent dispatch.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Target returns the drill-down target and whether the session is drilled in.
func (s *Session) Target() (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.state == StateDrilledIn
}

// Results returns the cached results of the last completed dispatch.
func (s *Session) Results() Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// Placeholder returns the drilled-in dock's placeholder text, if any.
func (s *Session) Placeholder() string {
	t, ok := s.Target()
	if !ok {
		return ""
	}
	return s.e.reg.Placeholder(t.Extension)
}

// bump invalidates the in-flight dispatch. Must hold s.mu.
func (s *Session) bump() uint64 {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.gen
}

// Dispatch searches with query in the current scope and caches the results.
// It returns ErrSuperseded when a newer dispatch, a scope change or Close
// overtook it, and ErrSessionClosed when the session is Idle.
func (s *Session) Dispatch(ctx context.Context, query string) (Results, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return Results{}, ErrSessionClosed
	}
	gen := s.bump()
	dctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.query = query
	var target Target
	if s.state == StateDrilledIn {
		target = s.target
	}
	s.mu.Unlock()

	res, err := s.e.Search(dctx, query, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		cancel()
		return Results{}, ErrSuperseded
	}
	cancel()
	s.cancel = nil
	if err != nil {
		return Results{}, err
	}
	s.cache = res
	return res, nil
}

// Select acts on an item. A drill-down item moves the session into
// DrilledIn and returns the dock's sub-view surface, which may be nil.
// Any other item is executed, activating its dock first when required.
func (s *Session) Select(ctx context.Context, it Item) (extension.Surface, error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if !it.HasDrillDown {
		s.mu.Unlock()
		return nil, s.e.Execute(ctx, it)
	}
	s.bump()
	s.state = StateDrilledIn
	s.target = it.Key()
	s.query = ""
	s.cache = Results{}
	s.mu.Unlock()

	if it.RequiresActivation && s.e.act != nil {
		if err := s.e.act.Activate(ctx, it.Extension); err != nil {
			return nil, fmt.Errorf("activate %s: %w", it.Extension, err)
		}
	}
	return s.e.SubView(ctx, it.Key())
}

// DrillDown enters a drill-down target directly, as Select would for an
// item with HasDrillDown set.
func (s *Session) DrillDown(ctx context.Context, t Target) (extension.Surface, error) {
	return s.Select(ctx, Item{Extension: t.Extension, ID: t.Action, HasDrillDown: true})
}

// Back leaves the drill-down and returns to Browsing.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		return ErrSessionClosed
	case StateBrowsing:
		return ErrNotDrilledIn
	}
	s.bump()
	s.state = StateBrowsing
	s.target = Target{}
	s.query = ""
	s.cache = Results{}
	return nil
}

// Close ends the session, cancelling any in-flight or pending dispatch, and
// tells palette observers the palette has hidden. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.bump()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateIdle
	s.target = Target{}
	s.query = ""
	s.cache = Results{}
	s.mu.Unlock()

	s.e.notify(false)
}
