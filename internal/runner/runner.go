// Package runner provides serial execution contexts, one per owner.
//
// Every dock gets its own runner. Lifecycle hooks, notification deliveries,
// provider searches and action executions for that dock all run on it, one at
// a time, in submission order. A dock's code therefore never runs
// concurrently with itself, while different docks proceed in parallel.
//
// Design: queues are unbounded so that enqueueing never blocks the caller.
// A publisher or the palette must not stall because one dock is slow. Do
// bounds the caller's wait with a context; the task itself keeps running
// when the wait gives up, because Go cannot preempt it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed is returned when the owner has no open runner.
	ErrClosed = errors.New("runner closed")
	// ErrPanic wraps a panic recovered from a task.
	ErrPanic = errors.New("task panicked")
)

// PanicFunc receives panics recovered from fire-and-forget tasks.
type PanicFunc func(owner string, v any)

type task struct {
	run  func()
	drop func()
}

// runner is one serial FIFO queue drained by a single goroutine.
type runner struct {
	owner   string
	onPanic PanicFunc

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
	done   chan struct{}
}

func newRunner(owner string, onPanic PanicFunc) *runner {
	r := &runner{owner: owner, onPanic: onPanic, done: make(chan struct{})}
	r.cond = sync.NewCond(&r.mu)
	go r.loop()
	return r
}

func (r *runner) enqueue(t task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.queue = append(r.queue, t)
	r.cond.Signal()
	return true
}

func (r *runner) loop() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if r.closed {
			pending := r.queue
			r.queue = nil
			r.mu.Unlock()
			for _, t := range pending {
				if t.drop != nil {
					t.drop()
				}
			}
			return
		}
		t := r.queue[0]
		r.queue[0] = task{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.exec(t)
	}
}

func (r *runner) exec(t task) {
	defer func() {
		if v := recover(); v != nil && r.onPanic != nil {
			r.onPanic(r.owner, v)
		}
	}()
	t.run()
}

func (r *runner) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *runner) close() {
	r.mu.Lock()
	r.closed = true
	r.cond.Signal()
	r.mu.Unlock()
}

// Pool holds the open runners keyed by owner.
type Pool struct {
	onPanic PanicFunc

	mu      sync.Mutex
	runners map[string]*runner
}

// New creates an empty pool. onPanic may be nil.
func New(onPanic PanicFunc) *Pool {
	return &Pool{onPanic: onPanic, runners: make(map[string]*runner)}
}

// Open starts a runner for owner. Opening an already open owner is a no-op.
func (p *Pool) Open(owner string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.runners[owner]; !ok {
		p.runners[owner] = newRunner(owner, p.onPanic)
	}
}

func (p *Pool) get(owner string) *runner {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runners[owner]
}

// Go enqueues fn on owner's runner and returns immediately. It reports false
// when owner has no open runner. Panics go to the pool's PanicFunc.
func (p *Pool) Go(owner string, fn func()) bool {
	r := p.get(owner)
	if r == nil {
		return false
	}
	return r.enqueue(task{run: fn})
}

// Do runs fn on owner's runner and waits for it or for ctx. When ctx ends
// first Do returns ctx.Err(); fn is skipped if it has not started yet and
// otherwise runs to completion unobserved. A panic in fn is returned as an
// error wrapping ErrPanic.
func (p *Pool) Do(ctx context.Context, owner string, fn func() error) error {
	r := p.get(owner)
	if r == nil {
		return fmt.Errorf("%s: %w", owner, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res := make(chan error, 1)
	t := task{
		run: func() {
			if ctx.Err() != nil {
				res <- ctx.Err()
				return
			}
			res <- call(fn)
		},
		drop: func() { res <- fmt.Errorf("%s: %w", owner, ErrClosed) },
	}
	if !r.enqueue(t) {
		return fmt.Errorf("%s: %w", owner, ErrClosed)
	}

	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func call(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, v)
		}
	}()
	return fn()
}

// Pending returns the number of queued tasks not yet started for owner.
func (p *Pool) Pending(owner string) int {
	r := p.get(owner)
	if r == nil {
		return 0
	}
	return r.pending()
}

// IsOpen reports whether owner has an open runner.
func (p *Pool) IsOpen(owner string) bool {
	return p.get(owner) != nil
}

// Close stops owner's runner. Queued tasks that have not started are
// dropped; a running task finishes on its own. Close does not wait.
func (p *Pool) Close(owner string) {
	p.mu.Lock()
	r := p.runners[owner]
	delete(p.runners, owner)
	p.mu.Unlock()
	if r != nil {
		r.close()
	}
}

// Shutdown closes every runner.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	rs := p.runners
	p.runners = make(map[string]*runner)
	p.mu.Unlock()
	for _, r := range rs {
		r.close()
	}
}
