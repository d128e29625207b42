package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/host"
	"github.com/jpl-au/dock/internal/palette"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ident = extension.Identity{ID: "com.jpl.notes", Name: "Notes", Version: "1.2.0", MinSDKVersion: "1.2.0"}

type recorder struct {
	mu     sync.Mutex
	toasts []string
	sheets []extension.Surface
}

func (u *recorder) Toast(msg string, _ extension.ToastStyle) {
	u.mu.Lock()
	u.toasts = append(u.toasts, msg)
	u.mu.Unlock()
}

func (u *recorder) Confirm(string, string, string) bool { return true }

func (u *recorder) PresentSheet(s extension.Surface) {
	u.mu.Lock()
	u.sheets = append(u.sheets, s)
	u.mu.Unlock()
}

func (u *recorder) DismissSheet() {}

func (u *recorder) allToasts() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.toasts...)
}

func (u *recorder) allSheets() []extension.Surface {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]extension.Surface(nil), u.sheets...)
}

func load(t *testing.T) (*host.Host, *Dock, *recorder) {
	t.Helper()
	ui := &recorder{}
	h := host.New(host.Options{StorageDir: t.TempDir(), UI: ui})
	t.Cleanup(func() { _ = h.Shutdown(context.Background()) })

	d := New(ticker())
	require.NoError(t, h.Load(context.Background(), extension.Registration{
		Identity: ident,
		New:      func() extension.Extension { return d },
	}))
	require.NoError(t, h.Wake(context.Background()))
	return h, d, ui
}

func find(t *testing.T, res palette.Results, id string) palette.Item {
	t.Helper()
	it, ok := res.Find(palette.Target{Extension: ident.ID, Action: id})
	require.True(t, ok, "missing %s in %v", id, res.Titles())
	return it
}

// run executes a notes subcommand through the host and returns its output.
func run(t *testing.T, h *host.Host, args ...string) (string, error) {
	t.Helper()
	var root *cobra.Command
	for _, c := range h.Commands() {
		if c.Name() == "notes" {
			root = c
		}
	}
	require.NotNil(t, root, "notes command not registered")

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(os.Stdout) })
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(&buf)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestManifest(t *testing.T) {
	reg, ok := extension.Get("com.jpl.notes")
	require.True(t, ok)
	assert.Equal(t, "Notes", reg.Identity.Name)
	assert.Equal(t, "1.2.0", reg.Identity.MinSDKVersion)
}

func TestSearch_AddNote(t *testing.T) {
	h, d, ui := load(t)
	ctx := context.Background()

	res, err := h.Palette().Search(ctx, "note Buy Milk", palette.Target{})
	require.NoError(t, err)
	it := find(t, res, ResultAdd)
	assert.Equal(t, "Add note: Buy Milk", it.Title)
	assert.Equal(t, palette.KindDynamic, it.Kind)

	require.NoError(t, h.Palette().Execute(ctx, it))
	notes := d.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "Buy Milk", notes[0].Text)
	assert.Equal(t, []string{"Saved note 1"}, ui.allToasts())

	res, err = h.Palette().Search(ctx, "notes", palette.Target{})
	require.NoError(t, err)
	assert.Equal(t, "1 note", find(t, res, InlineCount).InlineResult)
}

func TestSearch_MatchesNotes(t *testing.T) {
	h, d, ui := load(t)
	ctx := context.Background()

	_, err := d.add(ctx, "Dentist on Friday")
	require.NoError(t, err)
	_, err = d.add(ctx, "Call plumber")
	require.NoError(t, err)

	res, err := h.Palette().Search(ctx, "dent", palette.Target{})
	require.NoError(t, err)
	it := find(t, res, "note-1")
	assert.Equal(t, "Dentist on Friday", it.Title)
	_, ok := res.Find(palette.Target{Extension: ident.ID, Action: "note-2"})
	assert.False(t, ok)

	require.NoError(t, h.Palette().Execute(ctx, it))
	assert.Equal(t, []extension.Surface{extension.Markdown("Dentist on Friday")}, ui.allSheets())

	res, err = h.Palette().Search(ctx, "d", palette.Target{})
	require.NoError(t, err)
	_, ok = res.Find(palette.Target{Extension: ident.ID, Action: "note-1"})
	assert.False(t, ok, "single letters do not search note text")
}

func TestBrowse_DrillDown(t *testing.T) {
	h, d, _ := load(t)
	ctx := context.Background()

	_, err := d.add(ctx, "first")
	require.NoError(t, err)
	_, err = d.add(ctx, "second")
	require.NoError(t, err)

	s := h.OpenPalette()
	defer h.ClosePalette()
	view, err := s.DrillDown(ctx, palette.Target{Extension: ident.ID, Action: ActionBrowse})
	require.NoError(t, err)
	assert.Contains(t, string(view.(extension.Markdown)), "second")
	assert.Equal(t, "Search notes", s.Placeholder())

	res, err := s.Dispatch(ctx, "")
	require.NoError(t, err)
	find(t, res, "note-1")
	find(t, res, "note-2")

	res, err = s.Dispatch(ctx, "sec")
	require.NoError(t, err)
	find(t, res, "note-2")
	_, ok := res.Find(palette.Target{Extension: ident.ID, Action: "note-1"})
	assert.False(t, ok)
}

func TestDeepLinks(t *testing.T) {
	h, d, ui := load(t)
	ctx := context.Background()

	require.NoError(t, h.OpenURL(ctx, "dock://com.jpl.notes/new?text=From%20a%20link"))
	notes := d.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "From a link", notes[0].Text)

	require.NoError(t, h.OpenURL(ctx, "dock://com.jpl.notes/open?id=1"))
	assert.Len(t, ui.allSheets(), 1)
	assert.Eventually(t, func() bool { return h.Focused() == ident.ID }, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, h.OpenURL(ctx, "dock://com.jpl.notes/open?id=99"), host.ErrNoRoute)
	assert.ErrorIs(t, h.OpenURL(ctx, "dock://com.jpl.notes/new"), host.ErrNoRoute)
}

func TestSync_ReloadsFromStorage(t *testing.T) {
	h, d, _ := load(t)
	ctx := context.Background()

	// Write behind the dock's back, as another process would.
	_, err := d.book.Add(ctx, "written elsewhere")
	require.NoError(t, err)
	assert.Empty(t, d.Notes())

	require.NoError(t, h.OpenURL(ctx, "dock://com.jpl.notes/sync"))
	assert.Eventually(t, func() bool { return d.Syncs() == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, d.Notes(), 1)
}

func TestKeyBindings(t *testing.T) {
	h, d, _ := load(t)
	ctx := context.Background()

	_, err := h.PressKey(ctx, "cmd+shift+s")
	assert.ErrorIs(t, err, host.ErrNoFocus)

	require.NoError(t, h.Activate(ctx, ident.ID))
	b, err := h.PressKey(ctx, "cmd+shift+s")
	require.NoError(t, err)
	assert.Equal(t, "sync", b.ID)
	assert.Eventually(t, func() bool { return d.Syncs() == 1 }, time.Second, 10*time.Millisecond)

	items, err := h.MenuItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ActionNew, items[0].ID)
}

func TestCommands_Lifecycle(t *testing.T) {
	h, d, _ := load(t)

	out, err := run(t, h, "add", "shopping:", "milk")
	require.NoError(t, err)
	assert.Equal(t, "added note 1\n", out)

	_, err = run(t, h, "edit", "1", "shopping:", "butter")
	require.NoError(t, err)
	assert.Equal(t, "shopping: butter", d.Notes()[0].Text)

	out, err = run(t, h, "diff", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "- shopping: milk")
	assert.Contains(t, out, "+ shopping: butter")

	out, err = run(t, h, "show", "1", "--rev", "1")
	require.NoError(t, err)
	assert.Equal(t, "shopping: milk\n", out)

	_, err = run(t, h, "lock", "1")
	require.NoError(t, err)
	out, err = run(t, h, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked note 1")
	assert.NotContains(t, out, "butter")

	_, err = run(t, h, "rm", "1")
	assert.ErrorIs(t, err, ErrLocked)

	_, err = run(t, h, "unlock", "1")
	require.NoError(t, err)
	_, err = run(t, h, "rm", "1")
	require.NoError(t, err)
	assert.Empty(t, d.Notes())
}

func TestMCPTools(t *testing.T) {
	h, d, _ := load(t)
	ctx := context.Background()

	var add, list extension.MCPTool
	for _, tool := range h.Tools() {
		switch tool.Tool.Name {
		case "notes_add":
			add = tool
		case "notes_list":
			list = tool
		}
	}
	require.NotNil(t, add.Handler)
	require.NotNil(t, list.Handler)

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"text": "from a model"}
	res, err := add.Handler(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Len(t, d.Notes(), 1)

	res, err = list.Handler(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "1: from a model"))

	req.Params.Arguments = map[string]any{"text": " "}
	res, err = add.Handler(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestUnload_DropsCache(t *testing.T) {
	h, d, _ := load(t)
	ctx := context.Background()

	_, err := d.add(ctx, "kept on disk")
	require.NoError(t, err)
	require.NoError(t, h.Unload(ctx, ident.ID))
	assert.Empty(t, d.Notes())

	again := New(ticker())
	require.NoError(t, h.Load(ctx, extension.Registration{
		Identity: ident,
		New:      func() extension.Extension { return again },
	}))
	require.Len(t, again.Notes(), 1)
	assert.Equal(t, "kept on disk", again.Notes()[0].Text)
}
