// Package calc provides the calculator dock.
//
// Typing arithmetic into the palette produces a live result in the
// Calculations category. Selecting it records the calculation in a history
// kept in dock storage and updates the "Last Result" inline entry. The
// history is browsed by drilling into the "Calculation History" action.
package calc

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/manifest"
)

//go:embed dock.yaml
var manifestData []byte

func init() {
	extension.Register(manifest.MustParse(manifestData), func() extension.Extension {
		return New(time.Now)
	})
}

// Action identifiers.
const (
	ActionHistory = "history"
	ActionClear   = "clear-history"
	InlineLast    = "last-result"
	ResultEval    = "result"
)

// MaxHistory bounds the stored history.
const MaxHistory = 50

const historyKey = "history"

// Entry is one recorded calculation.
type Entry struct {
	Expr  string    `json:"expr"`
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

// Dock implements the calculator dock.
type Dock struct {
	now func() time.Time
	xc  extension.Context

	mu      sync.Mutex
	history []Entry // newest first
}

// Compile-time interface compliance.
var (
	_ extension.Extension           = (*Dock)(nil)
	_ extension.ActionProvider      = (*Dock)(nil)
	_ extension.ActionExecutor      = (*Dock)(nil)
	_ extension.SearchProvider      = (*Dock)(nil)
	_ extension.SubViewProvider     = (*Dock)(nil)
	_ extension.PlaceholderProvider = (*Dock)(nil)
	_ extension.PaletteObserver     = (*Dock)(nil)
	_ extension.CategoryProvider    = (*Dock)(nil)
	_ extension.Requirer            = (*Dock)(nil)
)

// New creates a calculator stamping history entries with now.
func New(now func() time.Time) *Dock {
	return &Dock{now: now}
}

// RequiredCapabilities declares history storage.
func (d *Dock) RequiredCapabilities() []string {
	return []string{extension.RequireStorage}
}

// Setup loads the stored history. A missing or unreadable history starts
// empty.
func (d *Dock) Setup(xc extension.Context) error {
	d.xc = xc
	d.reload()
	d.mu.Lock()
	last := d.latest()
	d.mu.Unlock()
	if last != nil {
		return xc.Palette().RegisterInline(lastAction(*last))
	}
	return nil
}

func (d *Dock) reload() {
	data, ok, err := d.xc.Storage().Get(context.Background(), historyKey)
	if err != nil {
		d.xc.Logger().Warning("load history: " + err.Error())
		return
	}
	var h []Entry
	if ok {
		if err := json.Unmarshal(data, &h); err != nil {
			d.xc.Logger().Warning("decode history: " + err.Error())
			return
		}
	}
	d.mu.Lock()
	d.history = h
	d.mu.Unlock()
}

func (d *Dock) latest() *Entry {
	if len(d.history) == 0 {
		return nil
	}
	e := d.history[0]
	return &e
}

func (d *Dock) save(h []Entry) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return d.xc.Storage().Set(context.Background(), historyKey, data)
}

// History returns the recorded calculations, newest first.
func (d *Dock) History() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Entry(nil), d.history...)
}

// Record adds a calculation to the history and updates the inline entry.
func (d *Dock) Record(ex Expression) error {
	e := Entry{Expr: ex.Source, Value: ex.Value, At: d.now()}
	d.mu.Lock()
	d.history = append([]Entry{e}, d.history...)
	if len(d.history) > MaxHistory {
		d.history = d.history[:MaxHistory]
	}
	h := append([]Entry(nil), d.history...)
	d.mu.Unlock()

	if err := d.save(h); err != nil {
		return err
	}
	return d.xc.Palette().RegisterInline(lastAction(e))
}

func lastAction(e Entry) extension.Action {
	return extension.Action{
		ID:           InlineLast,
		Title:        "Last Result",
		Subtitle:     e.Expr,
		Keywords:     []string{"ans", "last", "result"},
		Category:     extension.CategoryCalculations,
		InlineResult: "= " + Format(e.Value),
		Accent:       extension.AccentOrange,
	}
}

// Format renders a value with thousands separators and at most ten
// decimal places.
func Format(v float64) string {
	if math.Abs(v) < 1e15 {
		v = math.Round(v*1e10) / 1e10
	}
	return humanize.Commaf(v)
}

// View lists the history.
func (d *Dock) View() (extension.Surface, error) {
	return d.historyView(), nil
}

func (d *Dock) historyView() extension.Markdown {
	h := d.History()
	if len(h) == 0 {
		return "# Calculations\n\nNo calculations yet. Type one into the palette.\n"
	}
	var b strings.Builder
	b.WriteString("# Calculations\n\n")
	for _, e := range h {
		fmt.Fprintf(&b, "- `%s` = **%s** (%s)\n", e.Expr, Format(e.Value), humanize.RelTime(e.At, d.now(), "ago", "from now"))
	}
	return extension.Markdown(b.String())
}

// Actions returns the history drill-down and clear command.
func (d *Dock) Actions() []extension.Action {
	return []extension.Action{
		{
			ID:           ActionHistory,
			Title:        "Calculation History",
			Subtitle:     "Browse previous results",
			Keywords:     []string{"calc", "history", "calculator"},
			Category:     extension.CategoryCalculations,
			HasDrillDown: true,
			Accent:       extension.AccentOrange,
		},
		{
			ID:       ActionClear,
			Title:    "Clear Calculation History",
			Keywords: []string{"calc", "history", "clear"},
			Category: extension.CategoryCommands,
		},
	}
}

// ExecuteAction handles the clear command and copies the last result into
// the palette.
func (d *Dock) ExecuteAction(id string) error {
	switch id {
	case ActionClear:
		d.mu.Lock()
		d.history = nil
		d.mu.Unlock()
		d.xc.Palette().RemoveInline(InlineLast)
		if err := d.xc.Storage().Delete(context.Background(), historyKey); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		d.xc.UI().Toast("Calculation history cleared", extension.ToastSuccess)
	case InlineLast:
		d.mu.Lock()
		last := d.latest()
		d.mu.Unlock()
		if last != nil {
			d.xc.Palette().ShowQuery(last.Expr)
		}
	default:
		return fmt.Errorf("unknown action %q", id)
	}
	return nil
}

// Search evaluates the query, or filters the history when drilled in.
func (d *Dock) Search(_ context.Context, q extension.Query) ([]extension.Result, error) {
	if q.Scope == ActionHistory {
		return d.searchHistory(q.Text), nil
	}
	if q.Scope != "" || q.Text == "" {
		return nil, nil
	}
	ex, err := Eval(q.Text)
	if err != nil || !ex.IsCalculation() {
		// Most palette queries are not arithmetic.
		return nil, nil
	}
	return []extension.Result{{
		ID:           ResultEval,
		Title:        ex.Source,
		Subtitle:     "Select to keep in history",
		Category:     extension.CategoryCalculations,
		Priority:     90,
		InlineResult: "= " + Format(ex.Value),
		Accent:       extension.AccentOrange,
		Run: func(context.Context) error {
			return d.Record(ex)
		},
	}}, nil
}

func (d *Dock) searchHistory(text string) []extension.Result {
	var out []extension.Result
	for i, e := range d.History() {
		if text != "" && !strings.Contains(strings.ToLower(e.Expr), text) {
			continue
		}
		out = append(out, extension.Result{
			ID:           fmt.Sprintf("history-%d", i),
			Title:        e.Expr,
			Subtitle:     humanize.RelTime(e.At, d.now(), "ago", "from now"),
			Category:     extension.CategoryCalculations,
			Priority:     MaxHistory - i,
			InlineResult: "= " + Format(e.Value),
			Run: func(context.Context) error {
				d.xc.Palette().ShowQuery(e.Expr)
				return nil
			},
		})
	}
	return out
}

// SubView shows the history when the user drills in.
func (d *Dock) SubView(actionID string) (extension.Surface, error) {
	if actionID != ActionHistory {
		return nil, fmt.Errorf("no sub-view for %q", actionID)
	}
	return d.historyView(), nil
}

// Placeholder is shown while drilled into the history.
func (d *Dock) Placeholder() string {
	return "Filter calculations"
}

// PaletteWillShow reloads history written by another process, such as a
// "dock search --select" run from a shell.
func (d *Dock) PaletteWillShow() {
	d.reload()
}

// PaletteDidHide is a no-op; the history is small enough to keep.
func (d *Dock) PaletteDidHide() {}

// Categories lists the categories the calculator populates.
func (d *Dock) Categories() []string {
	return []string{extension.CategoryCalculations, extension.CategoryCommands}
}
