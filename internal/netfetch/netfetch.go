// Package netfetch is the host's HTTP facade for docks.
//
// Each dock gets a Fetcher bound to its identifier. Requests share one
// client and a host user agent, and each dock is rate limited on its own so
// a chatty dock cannot starve the others. Asynchronous fetches deliver their
// outcome on the dock's runner, never on the network goroutine.
package netfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jpl-au/dock/internal/version"
	"golang.org/x/time/rate"
)

// Defaults for Options.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 10 << 20
	DefaultRate     = 10 // requests per second per dock
	DefaultBurst    = 20
)

var (
	// ErrStatus is returned by Fetch for non-2xx responses.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrTooLarge is returned when a response body exceeds the size cap.
	ErrTooLarge = errors.New("response too large")
)

// Scheduler delivers callbacks on a dock's execution context.
type Scheduler interface {
	Go(owner string, fn func()) bool
}

// Options configures a Client.
type Options struct {
	HTTP      *http.Client
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
	Rate      rate.Limit
	Burst     int
}

// Client is shared by every dock's Fetcher.
type Client struct {
	http  *http.Client
	ua    string
	max   int64
	rate  rate.Limit
	burst int
	sched Scheduler

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a client. sched receives FetchAsync callbacks.
func New(sched Scheduler, opts Options) *Client {
	if opts.HTTP == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		opts.HTTP = &http.Client{Timeout: timeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "dock/" + version.Version + " (sdk " + version.SDK + ")"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	return &Client{
		http:     opts.HTTP,
		ua:       opts.UserAgent,
		max:      opts.MaxBytes,
		rate:     opts.Rate,
		burst:    opts.Burst,
		sched:    sched,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (c *Client) limiter(dock string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[dock]
	if !ok {
		l = rate.NewLimiter(c.rate, c.burst)
		c.limiters[dock] = l
	}
	return l
}

// Forget drops a dock's limiter after it unloads.
func (c *Client) Forget(dock string) {
	c.mu.Lock()
	delete(c.limiters, dock)
	c.mu.Unlock()
}

// For returns the Fetcher for dock.
func (c *Client) For(dock string) *Fetcher {
	return &Fetcher{c: c, dock: dock}
}

// Fetcher performs requests on behalf of one dock.
type Fetcher struct {
	c    *Client
	dock string
}

// Do sends req after waiting for the dock's rate limit. The caller closes
// the response body.
func (f *Fetcher) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := f.c.limiter(f.dock).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.c.ua)
	}
	return f.c.http.Do(req)
}

// Fetch GETs rawURL and returns the body. Non-2xx responses are errors
// wrapping ErrStatus.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.c.max+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.c.max {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.c.max)
	}
	return body, nil
}

// FetchAsync runs Fetch in the background and calls done on the dock's
// runner. If the dock has unloaded meanwhile, done is not called.
func (f *Fetcher) FetchAsync(rawURL string, done func(data []byte, err error)) {
	go func() {
		data, err := f.Fetch(context.Background(), rawURL)
		if done == nil {
			return
		}
		f.c.sched.Go(f.dock, func() { done(data, err) })
	}()
}
