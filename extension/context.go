// context.go defines the Context interface for dock access to host services.
//
// Separated from extension.go to isolate dependency injection concerns.
// The Context provides a controlled surface area for docks - they can reach
// what they need without touching host internals.
//
// Design: every service is an interface with a fixed set of named operations.
// The host always wires a value for each of them; when a front end has no
// real implementation (for example no UI in the CLI) it wires an explicit
// fallback that logs and ignores the request, rather than leaving a nil to be
// checked at every call site.

package extension

import (
	"context"
	"net/http"
)

// Context provides a dock controlled access to host services. Docks receive
// it in Setup and may keep it for their whole lifetime.
type Context interface {
	// ID returns this dock's identifier.
	ID() string

	// HostVersion returns the host build version.
	HostVersion() string

	// SDKVersion returns the extension contract version the host implements.
	SDKVersion() string

	// DevMode reports whether the host runs in developer mode.
	DevMode() bool

	// Storage is key-value persistence scoped to this dock.
	Storage() Storage

	// Secrets is encrypted key-value persistence scoped to this dock.
	Secrets() Storage

	// Notifications is the cross-dock notification bus.
	Notifications() Notifier

	// Navigation requests focus changes and opens links.
	Navigation() Navigator

	// UI shows toasts, confirmations and sheets.
	UI() UI

	// Logger writes to the host log, tagged with this dock's identifier.
	Logger() Logger

	// Net performs HTTP requests with the host's client.
	Net() Fetcher

	// Palette controls the command palette.
	Palette() Palette
}

// Storage is scoped key-value persistence. Values are opaque bytes.
type Storage interface {
	// Get returns the value and true, or nil and false if the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Notifier posts and observes named notifications. Observations are owned by
// the dock and removed automatically when it unloads.
type Notifier interface {
	Post(name string, payload []byte)
	Observe(name string, handler func(payload []byte)) (string, error)
	// Remove is idempotent; unknown tokens are ignored.
	Remove(token string)
}

// Navigator requests host navigation. Requests are asynchronous.
type Navigator interface {
	Navigate(id string)
	OpenURL(rawURL string)
}

// ToastStyle selects the toast presentation.
type ToastStyle int

// Toast styles.
const (
	ToastInfo ToastStyle = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// String returns the style name.
func (s ToastStyle) String() string {
	switch s {
	case ToastInfo:
		return "info"
	case ToastSuccess:
		return "success"
	case ToastWarning:
		return "warning"
	case ToastError:
		return "error"
	default:
		return "unknown"
	}
}

// UI is the host's presentation service.
type UI interface {
	Toast(message string, style ToastStyle)
	// Confirm asks the user to confirm. Returns false when no UI is attached.
	Confirm(title, message, confirm string) bool
	PresentSheet(s Surface)
	DismissSheet()
}

// Logger writes log entries. Calls never block.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// Fetcher performs network requests with the host's HTTP client.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
	// FetchAsync runs the request in the background and delivers the outcome
	// on this dock's runner.
	FetchAsync(rawURL string, done func(data []byte, err error))
}

// Palette lets a dock drive the command palette.
type Palette interface {
	Show()
	ShowQuery(query string)
	Hide()
	Toggle()
	Visible() bool

	// RegisterInline adds or replaces a persistent inline result.
	RegisterInline(a Action) error
	RemoveInline(id string)

	// Refresh re-reads Actions() and replaces this dock's static actions.
	Refresh() error
}

// Services bundles the values a Context hands out.
type Services struct {
	ID            string
	HostVersion   string
	SDKVersion    string
	DevMode       bool
	Storage       Storage
	Secrets       Storage
	Notifications Notifier
	Navigation    Navigator
	UI            UI
	Logger        Logger
	Net           Fetcher
	Palette       Palette
}

// extContext implements Context.
type extContext struct {
	s Services
}

// NewContext creates a dock context from wired services.
func NewContext(s Services) Context {
	return &extContext{s: s}
}

func (c *extContext) ID() string              { return c.s.ID }
func (c *extContext) HostVersion() string     { return c.s.HostVersion }
func (c *extContext) SDKVersion() string      { return c.s.SDKVersion }
func (c *extContext) DevMode() bool           { return c.s.DevMode }
func (c *extContext) Storage() Storage        { return c.s.Storage }
func (c *extContext) Secrets() Storage        { return c.s.Secrets }
func (c *extContext) Notifications() Notifier { return c.s.Notifications }
func (c *extContext) Navigation() Navigator   { return c.s.Navigation }
func (c *extContext) UI() UI                  { return c.s.UI }
func (c *extContext) Logger() Logger          { return c.s.Logger }
func (c *extContext) Net() Fetcher            { return c.s.Net }
func (c *extContext) Palette() Palette        { return c.s.Palette }
