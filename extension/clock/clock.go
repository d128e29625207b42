// Package clock provides the clock dock.
//
// It contributes a static "Show Time" command, a live result for time
// queries, an inline result carrying the local UTC offset and an MCP tool
// returning the current time. It also observes focus changes so its view
// can say which dock was active last.
package clock

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/manifest"
	"github.com/mark3labs/mcp-go/mcp"
)

//go:embed dock.yaml
var manifestData []byte

func init() {
	extension.Register(manifest.MustParse(manifestData), func() extension.Extension {
		return New(time.Now)
	})
}

// Layout is the format used for the time in results and toasts.
const Layout = "3:04 PM"

// Action identifiers.
const (
	ActionShowTime  = "show-time"
	ResultNow       = "now"
	InlineUTCOffset = "utc-offset"
)

var timeWords = []string{"time", "clock", "now"}

// Dock implements the clock dock.
type Dock struct {
	now func() time.Time
	xc  extension.Context

	mu        sync.Mutex
	lastFocus string
	focusAt   time.Time
}

// Compile-time interface compliance.
var (
	_ extension.Extension        = (*Dock)(nil)
	_ extension.ActionProvider   = (*Dock)(nil)
	_ extension.ActionExecutor   = (*Dock)(nil)
	_ extension.SearchProvider   = (*Dock)(nil)
	_ extension.CategoryProvider = (*Dock)(nil)
	_ extension.ToolProvider     = (*Dock)(nil)
	_ extension.Requirer         = (*Dock)(nil)
)

// New creates a clock reading time from now.
func New(now func() time.Time) *Dock {
	return &Dock{now: now}
}

// RequiredCapabilities declares the bus subscription.
func (d *Dock) RequiredCapabilities() []string {
	return []string{extension.RequireNotifications}
}

// Setup registers the UTC offset inline and starts watching focus changes.
func (d *Dock) Setup(xc extension.Context) error {
	d.xc = xc
	if err := xc.Palette().RegisterInline(d.offsetAction()); err != nil {
		return fmt.Errorf("register offset: %w", err)
	}
	if _, err := xc.Notifications().Observe(extension.TopicActivated, d.focusChanged); err != nil {
		return fmt.Errorf("observe focus: %w", err)
	}
	return nil
}

func (d *Dock) focusChanged(payload []byte) {
	d.mu.Lock()
	d.lastFocus = string(payload)
	d.focusAt = d.now()
	d.mu.Unlock()
}

// LastFocus returns the dock most recently activated and when.
func (d *Dock) LastFocus() (string, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastFocus, d.focusAt
}

func (d *Dock) offsetAction() extension.Action {
	return extension.Action{
		ID:           InlineUTCOffset,
		Title:        "UTC Offset",
		Keywords:     []string{"utc", "offset", "zone", "tz"},
		Category:     extension.CategoryUtilities,
		InlineResult: Offset(d.now()),
		Accent:       extension.AccentTeal,
	}
}

// Offset formats t's zone offset as "UTC+10:00".
func Offset(t time.Time) string {
	_, secs := t.Zone()
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, secs/3600, secs%3600/60)
}

// View shows the time and the last focused dock.
func (d *Dock) View() (extension.Surface, error) {
	now := d.now()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", now.Format(Layout))
	fmt.Fprintf(&b, "%s, %s\n", now.Format("Monday 2 January 2006"), Offset(now))
	if id, at := d.LastFocus(); id != "" {
		fmt.Fprintf(&b, "\nLast focused: `%s` at %s\n", id, at.Format(Layout))
	}
	return extension.Markdown(b.String()), nil
}

// Actions returns the static show-time command.
func (d *Dock) Actions() []extension.Action {
	return []extension.Action{{
		ID:       ActionShowTime,
		Title:    "Show Time",
		Subtitle: "Display the current time",
		Keywords: timeWords,
		Category: extension.CategoryCommands,
		Accent:   extension.AccentBlue,
	}}
}

// ExecuteAction shows the time, or the offset, as a toast.
func (d *Dock) ExecuteAction(id string) error {
	switch id {
	case ActionShowTime:
		d.xc.UI().Toast("It is "+d.now().Format(Layout), extension.ToastInfo)
	case InlineUTCOffset:
		d.xc.UI().Toast(Offset(d.now()), extension.ToastInfo)
	default:
		return fmt.Errorf("unknown action %q", id)
	}
	return nil
}

// Search answers time queries with the current time.
func (d *Dock) Search(_ context.Context, q extension.Query) ([]extension.Result, error) {
	if q.Text == "" || !matchesTime(q.Text) {
		return nil, nil
	}
	now := d.now()
	return []extension.Result{{
		ID:       ResultNow,
		Title:    now.Format(Layout),
		Subtitle: now.Format("Monday 2 January"),
		Category: extension.CategorySuggested,
		Priority: 100,
		Accent:   extension.AccentBlue,
		Run: func(context.Context) error {
			d.xc.UI().Toast("It is "+now.Format(Layout), extension.ToastInfo)
			return nil
		},
	}}, nil
}

func matchesTime(q string) bool {
	for _, w := range timeWords {
		if strings.HasPrefix(w, q) || strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// Categories lists the categories the clock populates.
func (d *Dock) Categories() []string {
	return []string{extension.CategorySuggested, extension.CategoryCommands, extension.CategoryUtilities}
}

// MCPTools exposes the current time.
func (d *Dock) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{{
		Tool: mcp.NewTool("clock_now",
			mcp.WithDescription("Current local time, date and UTC offset."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		Handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			now := d.now()
			return mcp.NewToolResultText(fmt.Sprintf("%s (%s, %s)",
				now.Format(Layout), now.Format("2006-01-02"), Offset(now))), nil
		},
	}}
}
