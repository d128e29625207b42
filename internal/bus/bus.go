// Package bus implements the cross-dock notification bus.
//
// Docks publish named notifications with an opaque byte payload and observe
// the names they care about. The host constructs exactly one Bus and hands it
// to every dock through its context; there is no package-level instance.
//
// Delivery runs on the subscriber's own runner, never on the publisher's
// goroutine. Publish enqueues one delivery per matching subscription before
// it returns, so a subscriber sees notifications from one publisher in the
// order they were published.
//
// Design: each subscription carries an active flag that is cleared by
// Unsubscribe and re-checked on the subscriber's runner immediately before
// the handler runs. A delivery that was already snapshotted when the
// subscription was removed is discarded instead of invoked.
package bus

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTopic is returned when subscribing to an empty name.
	ErrInvalidTopic = errors.New("invalid notification name")
	// ErrNilHandler is returned when subscribing with a nil handler.
	ErrNilHandler = errors.New("nil handler")
)

// Token identifies a subscription. Tokens are unique for the process lifetime.
type Token string

// Handler receives a notification payload. Each handler receives its own copy.
type Handler func(payload []byte)

// Scheduler runs fn on owner's execution context. It reports false when the
// owner has no open context, in which case the delivery is dropped.
type Scheduler interface {
	Go(owner string, fn func()) bool
}

// ErrorFunc receives handler panics.
type ErrorFunc func(owner, name string, err error)

type subscription struct {
	token   Token
	owner   string
	name    string
	handler Handler
	active  atomic.Bool
}

// Stats are cumulative counters since the bus was created.
type Stats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Panics    int64 `json:"panics"`
}

// Bus is a concurrency-safe publish/subscribe table.
type Bus struct {
	sched   Scheduler
	onError ErrorFunc

	mu     sync.RWMutex
	byName map[string][]*subscription
	byTok  map[Token]*subscription

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	panics    atomic.Int64
}

// Option configures a Bus.
type Option func(*Bus)

// WithErrorFunc sets the handler panic callback.
func WithErrorFunc(fn ErrorFunc) Option {
	return func(b *Bus) { b.onError = fn }
}

// New creates a bus that schedules deliveries with sched.
func New(sched Scheduler, opts ...Option) *Bus {
	b := &Bus{
		sched:  sched,
		byName: make(map[string][]*subscription),
		byTok:  make(map[Token]*subscription),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers h for notifications named name on behalf of owner.
// The subscription is visible to every Publish that starts after Subscribe
// returns.
func (b *Bus) Subscribe(owner, name string, h Handler) (Token, error) {
	if name == "" {
		return "", ErrInvalidTopic
	}
	if h == nil {
		return "", ErrNilHandler
	}

	s := &subscription{
		token:   Token(uuid.Must(uuid.NewV7()).String()),
		owner:   owner,
		name:    name,
		handler: h,
	}
	s.active.Store(true)

	b.mu.Lock()
	b.byName[name] = append(b.byName[name], s)
	b.byTok[s.token] = s
	b.mu.Unlock()
	return s.token, nil
}

// Unsubscribe removes the subscription. Unknown and already removed tokens
// are ignored. Once Unsubscribe returns the handler is never invoked again,
// including for deliveries that were queued before the call.
func (b *Bus) Unsubscribe(t Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.byTok[t]
	if !ok {
		return
	}
	b.remove(s)
}

// RemoveAll removes every subscription held by owner and returns how many
// were removed.
func (b *Bus) RemoveAll(owner string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int
	for _, s := range b.byTok {
		if s.owner == owner {
			b.remove(s)
			n++
		}
	}
	return n
}

// remove must be called with b.mu held.
func (b *Bus) remove(s *subscription) {
	s.active.Store(false)
	delete(b.byTok, s.token)

	subs := b.byName[s.name]
	for i, o := range subs {
		if o == s {
			// Copy so snapshots held by in-flight publishes stay intact.
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			subs = next
			break
		}
	}
	if len(subs) == 0 {
		delete(b.byName, s.name)
	} else {
		b.byName[s.name] = subs
	}
}

// Publish delivers payload to every subscription whose name matches exactly.
// It never blocks on handlers and never fails; with no subscribers it is a
// no-op.
func (b *Bus) Publish(name string, payload []byte) {
	b.published.Add(1)

	b.mu.RLock()
	subs := b.byName[name]
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, clone(payload))
	}
}

func (b *Bus) deliver(s *subscription, payload []byte) {
	ok := b.sched.Go(s.owner, func() {
		if !s.active.Load() {
			b.dropped.Add(1)
			return
		}
		b.invoke(s, payload)
	})
	if !ok {
		b.dropped.Add(1)
	}
}

func (b *Bus) invoke(s *subscription, payload []byte) {
	defer func() {
		if v := recover(); v != nil {
			b.panics.Add(1)
			if b.onError != nil {
				b.onError(s.owner, s.name, fmt.Errorf("handler panic: %v", v))
			}
		}
	}()
	s.handler(payload)
	b.delivered.Add(1)
}

func clone(p []byte) []byte {
	if p == nil {
		return nil
	}
	c := make([]byte, len(p))
	copy(c, p)
	return c
}

// Count returns the number of subscriptions held by owner.
func (b *Bus) Count(owner string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var n int
	for _, s := range b.byTok {
		if s.owner == owner {
			n++
		}
	}
	return n
}

// Subscribers returns the number of subscriptions to name.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byName[name])
}

// Len returns the total number of subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byTok)
}

// Topics returns the sorted names that currently have subscribers.
func (b *Bus) Topics() []string {
	b.mu.RLock()
	names := make([]string, 0, len(b.byName))
	for n := range b.byName {
		names = append(names, n)
	}
	b.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Stats returns the cumulative counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Panics:    b.panics.Load(),
	}
}
