// Package notes provides the notes dock.
//
// Notes live in dock storage and are searched from the palette, added by
// typing "note <text>", by deep link (dock://com.jpl.notes/new?text=...),
// from the CLI or through MCP. The dock listens for "sync" notifications
// and reloads when another process changed the notes.
package notes

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
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

// Category is the palette category notes appear in.
const Category = "Notes"

// TopicSync asks the notes dock to reload from storage.
const TopicSync = "sync"

// Action and binding identifiers.
const (
	ActionNew    = "new-note"
	ActionBrowse = "browse"
	ActionSync   = "sync-notes"
	InlineCount  = "note-count"
	ResultAdd    = "add"
)

// addPrefix starts a palette query that adds a note.
const addPrefix = "note "

// Dock implements the notes dock.
type Dock struct {
	now  func() time.Time
	xc   extension.Context
	book *Book

	mu    sync.Mutex
	notes []Note // cache for search, most recent first
	syncs int
}

// Compile-time interface compliance.
var (
	_ extension.Extension           = (*Dock)(nil)
	_ extension.Requirer            = (*Dock)(nil)
	_ extension.ActionProvider      = (*Dock)(nil)
	_ extension.ActionExecutor      = (*Dock)(nil)
	_ extension.SearchProvider      = (*Dock)(nil)
	_ extension.SubViewProvider     = (*Dock)(nil)
	_ extension.PlaceholderProvider = (*Dock)(nil)
	_ extension.CategoryProvider    = (*Dock)(nil)
	_ extension.KeyBinder           = (*Dock)(nil)
	_ extension.MenuProvider        = (*Dock)(nil)
	_ extension.LinkHandler         = (*Dock)(nil)
	_ extension.Commander           = (*Dock)(nil)
	_ extension.ToolProvider        = (*Dock)(nil)
	_ extension.Unloader            = (*Dock)(nil)
)

// New creates a notes dock stamping notes with now.
func New(now func() time.Time) *Dock {
	return &Dock{now: now}
}

// RequiredCapabilities declares storage for notes, secrets for locked
// notes and notifications for sync.
func (d *Dock) RequiredCapabilities() []string {
	return []string{
		extension.RequireStorage,
		extension.RequireSecrets,
		extension.RequireNotifications,
	}
}

// Setup loads the notes and subscribes to sync requests.
func (d *Dock) Setup(xc extension.Context) error {
	d.xc = xc
	d.book = NewBook(xc.Storage(), xc.Secrets(), d.now)
	if _, err := xc.Notifications().Observe(TopicSync, d.synced); err != nil {
		return fmt.Errorf("observe %s: %w", TopicSync, err)
	}
	if err := d.reload(context.Background()); err != nil {
		xc.Logger().Warning("load notes: " + err.Error())
	}
	return nil
}

// WillUnload drops the cache.
func (d *Dock) WillUnload() error {
	d.mu.Lock()
	d.notes = nil
	d.mu.Unlock()
	return nil
}

func (d *Dock) synced([]byte) {
	if err := d.reload(context.Background()); err != nil {
		d.xc.Logger().Error("sync: " + err.Error())
		return
	}
	d.mu.Lock()
	d.syncs++
	d.mu.Unlock()
}

// Syncs counts completed sync reloads.
func (d *Dock) Syncs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syncs
}

// reload refreshes the cache and the count inline from storage.
func (d *Dock) reload(ctx context.Context) error {
	notes, err := d.book.List(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.notes = notes
	d.mu.Unlock()
	return d.xc.Palette().RegisterInline(countAction(len(notes)))
}

func countAction(n int) extension.Action {
	return extension.Action{
		ID:           InlineCount,
		Title:        "Notes",
		Keywords:     []string{"notes", "count"},
		Category:     Category,
		InlineResult: fmt.Sprintf("%d %s", n, plural(n, "note")),
		Accent:       extension.AccentYellow,
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Notes returns the cached notes, most recent first.
func (d *Dock) Notes() []Note {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Note(nil), d.notes...)
}

// add stores a note and refreshes the cache.
func (d *Dock) add(ctx context.Context, text string) (Note, error) {
	n, err := d.book.Add(ctx, text)
	if err != nil {
		return Note{}, err
	}
	return n, d.changed(ctx)
}

// changed reloads after a local write and tells other docks.
func (d *Dock) changed(ctx context.Context) error {
	if err := d.reload(ctx); err != nil {
		return err
	}
	d.xc.Notifications().Post("notes.changed", nil)
	return nil
}

// View lists the notes.
func (d *Dock) View() (extension.Surface, error) {
	return d.listView(), nil
}

func (d *Dock) listView() extension.Markdown {
	notes := d.Notes()
	var b strings.Builder
	b.WriteString("# Notes\n\n")
	if len(notes) == 0 {
		b.WriteString("No notes yet. Type `note <text>` into the palette.\n")
		return extension.Markdown(b.String())
	}
	for _, n := range notes {
		fmt.Fprintf(&b, "- **%s** %s _(%s)_\n", n.ID, n.Title(), humanize.RelTime(n.Updated, d.now(), "ago", "from now"))
	}
	return extension.Markdown(b.String())
}

// Actions returns the static notes commands.
func (d *Dock) Actions() []extension.Action {
	return []extension.Action{
		{
			ID:                 ActionNew,
			Title:              "New Note",
			Keywords:           []string{"note", "add", "write"},
			Category:           extension.CategoryCommands,
			RequiresActivation: true,
			ShortcutHint:       "⌘N",
			Accent:             extension.AccentYellow,
		},
		{
			ID:           ActionBrowse,
			Title:        "Browse Notes",
			Keywords:     []string{"notes", "list"},
			Category:     Category,
			HasDrillDown: true,
			Accent:       extension.AccentYellow,
		},
		{
			ID:           ActionSync,
			Title:        "Sync Notes",
			Keywords:     []string{"notes", "sync", "reload"},
			Category:     extension.CategoryCommands,
			ShortcutHint: "⌘⇧S",
		},
	}
}

// ExecuteAction runs a static or inline notes action.
func (d *Dock) ExecuteAction(id string) error {
	switch id {
	case ActionNew:
		d.startNote()
	case ActionSync:
		d.requestSync()
	case InlineCount:
		d.xc.Navigation().Navigate(d.xc.ID())
	default:
		return fmt.Errorf("unknown action %q", id)
	}
	return nil
}

func (d *Dock) startNote() {
	d.xc.Palette().ShowQuery(addPrefix)
}

func (d *Dock) requestSync() {
	d.xc.Notifications().Post(TopicSync, nil)
}

// Search offers to add a note for "note <text>" queries and otherwise
// matches existing notes. Drilled into Browse Notes it lists every note.
func (d *Dock) Search(_ context.Context, q extension.Query) ([]extension.Result, error) {
	if q.Scope == ActionBrowse {
		return d.matching(q.Text, true), nil
	}
	if q.Scope != "" {
		return nil, nil
	}
	if strings.HasPrefix(q.Text, addPrefix) && len(q.Raw) > len(addPrefix) {
		text := strings.TrimSpace(q.Raw[len(addPrefix):])
		return []extension.Result{{
			ID:       ResultAdd,
			Title:    "Add note: " + text,
			Category: Category,
			Priority: 100,
			Accent:   extension.AccentYellow,
			Run: func(ctx context.Context) error {
				n, err := d.add(ctx, text)
				if err != nil {
					return err
				}
				d.xc.UI().Toast("Saved note "+n.ID, extension.ToastSuccess)
				return nil
			},
		}}, nil
	}
	if len(q.Text) < 2 {
		return nil, nil
	}
	return d.matching(q.Text, false), nil
}

func (d *Dock) matching(text string, all bool) []extension.Result {
	var out []extension.Result
	notes := d.Notes()
	for i, n := range notes {
		if n.Locked && !all {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(n.Text), text) && !strings.Contains(strings.ToLower(n.Title()), text) {
			continue
		}
		out = append(out, extension.Result{
			ID:       "note-" + n.ID,
			Title:    n.Title(),
			Subtitle: humanize.RelTime(n.Updated, d.now(), "ago", "from now"),
			Category: Category,
			Priority: len(notes) - i,
			Run: func(context.Context) error {
				d.present(n)
				return nil
			},
		})
	}
	return out
}

func (d *Dock) present(n Note) {
	if n.Locked {
		d.xc.UI().Toast("Note "+n.ID+" is locked", extension.ToastWarning)
		return
	}
	d.xc.UI().PresentSheet(extension.Markdown(n.Text))
}

// SubView lists the notes for Browse Notes.
func (d *Dock) SubView(actionID string) (extension.Surface, error) {
	if actionID != ActionBrowse {
		return nil, fmt.Errorf("no sub-view for %q", actionID)
	}
	return d.listView(), nil
}

// Placeholder is shown while browsing notes.
func (d *Dock) Placeholder() string {
	return "Search notes"
}

// Categories lists the categories notes populates.
func (d *Dock) Categories() []string {
	return []string{Category, extension.CategoryCommands}
}

// KeyBindings registers the notes shortcuts.
func (d *Dock) KeyBindings() []extension.KeyBinding {
	return []extension.KeyBinding{
		{
			ID:        "new",
			Title:     "New Note",
			Key:       "N",
			Modifiers: extension.ModCommand,
			Category:  Category,
			Run: func() error {
				d.startNote()
				return nil
			},
		},
		{
			ID:        "sync",
			Title:     "Sync Notes",
			Key:       "S",
			Modifiers: extension.ModCommand | extension.ModShift,
			Category:  Category,
			Run: func() error {
				d.requestSync()
				return nil
			},
		},
	}
}

// MenuItems lists the notes menu entries.
func (d *Dock) MenuItems() []extension.MenuItem {
	return []extension.MenuItem{
		{ID: ActionNew, Title: "New Note", Shortcut: "⌘N"},
		{ID: ActionSync, Title: "Sync Notes", Shortcut: "⌘⇧S"},
	}
}

// HandleURL handles dock://com.jpl.notes/new?text=..., /open?id=... and
// /sync.
func (d *Dock) HandleURL(u *url.URL) bool {
	switch strings.TrimSuffix(u.Path, "/") {
	case "/new":
		text := u.Query().Get("text")
		if strings.TrimSpace(text) == "" {
			return false
		}
		n, err := d.add(context.Background(), text)
		if err != nil {
			d.xc.Logger().Error("deep link add: " + err.Error())
			return false
		}
		d.xc.UI().Toast("Saved note "+n.ID, extension.ToastSuccess)
		return true
	case "/open":
		n, err := d.book.Get(context.Background(), u.Query().Get("id"))
		if err != nil {
			return false
		}
		d.xc.Navigation().Navigate(d.xc.ID())
		d.present(n)
		return true
	case "/sync":
		d.requestSync()
		return true
	}
	return false
}
