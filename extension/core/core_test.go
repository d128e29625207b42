package core

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleID = "com.test.sample"

// sample is a dock exercising every surface the core commands reach.
type sample struct {
	xc extension.Context

	mu     sync.Mutex
	ran    []string
	pinged []string
}

func (p *sample) Setup(xc extension.Context) error {
	p.xc = xc
	_, err := xc.Notifications().Observe("ping", func(payload []byte) {
		p.record(&p.pinged, string(payload))
	})
	return err
}

func (p *sample) View() (extension.Surface, error) {
	return extension.Text("sample view"), nil
}

func (p *sample) record(into *[]string, s string) {
	p.mu.Lock()
	*into = append(*into, s)
	p.mu.Unlock()
}

func (p *sample) snapshot(from *[]string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), (*from)...)
}

func (p *sample) Actions() []extension.Action {
	return []extension.Action{{
		ID:       "hello",
		Title:    "Say Hello",
		Category: extension.CategoryCommands,
		Accent:   extension.AccentGreen,
	}}
}

func (p *sample) ExecuteAction(id string) error {
	p.record(&p.ran, id)
	return nil
}

func (p *sample) KeyBindings() []extension.KeyBinding {
	return []extension.KeyBinding{{
		ID:        "greet",
		Title:     "Greet",
		Key:       "G",
		Modifiers: extension.ModCommand,
		Run: func() error {
			p.record(&p.ran, "greet")
			return nil
		},
	}}
}

func (p *sample) MenuItems() []extension.MenuItem {
	return []extension.MenuItem{{ID: "hello", Title: "Say Hello", Shortcut: "⌘G"}}
}

func (p *sample) HandleURL(u *url.URL) bool {
	p.record(&p.ran, "link:"+u.Path)
	return u.Path == "/hello"
}

func setup(t *testing.T) (*host.Host, *sample) {
	t.Helper()
	h := host.New(host.Options{StorageDir: t.TempDir()})
	t.Cleanup(func() { _ = h.Shutdown(context.Background()) })

	p := &sample{}
	require.NoError(t, h.Load(context.Background(), extension.Registration{
		Identity: extension.Identity{ID: sampleID, Name: "Sample", Version: "1.0.0", MinSDKVersion: "1.0.0"},
		New:      func() extension.Extension { return p },
	}))

	prev := currentHost
	currentHost = func() *host.Host { return h }
	t.Cleanup(func() { currentHost = prev })
	return h, p
}

// run executes a core command by name and returns what it wrote.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(os.Stdout) })

	for _, c := range (&Dock{}).Commands() {
		if c.Name() != args[0] {
			continue
		}
		c.SetArgs(args[1:])
		c.SetOut(&buf)
		c.SetErr(&buf)
		err := c.ExecuteContext(context.Background())
		return buf.String(), err
	}
	t.Fatalf("no command %q", args[0])
	return "", nil
}

func TestCommands_AllHostCommands(t *testing.T) {
	for _, c := range (&Dock{}).Commands() {
		assert.Equal(t, "true", c.Annotations[extension.AnnotationHostCommand], c.Name())
	}
}

func TestManifest(t *testing.T) {
	reg, ok := extension.Get("com.jpl.core")
	require.True(t, ok)
	assert.Equal(t, "Core", reg.Identity.Name)
}

func TestLs(t *testing.T) {
	setup(t)

	out, err := run(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, sampleID)
	assert.Contains(t, out, "loaded")
	assert.NotContains(t, out, "com.jpl.core")

	out, err = run(t, "ls", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "com.jpl.core")
	assert.Contains(t, out, "unloaded")
}

func TestShow(t *testing.T) {
	h, _ := setup(t)

	out, err := run(t, "show", sampleID)
	require.NoError(t, err)
	assert.Equal(t, "sample view", out)
	assert.Equal(t, sampleID, h.Focused())

	_, err = run(t, "show", "com.test.missing")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	_, p := setup(t)

	out, err := run(t, "search", "hello", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "Commands\n")
	assert.Contains(t, out, "  1 • Say Hello")
	assert.Contains(t, out, sampleID+"/hello")

	out, err = run(t, "search", "nothing-matches")
	require.NoError(t, err)
	assert.Equal(t, "no results\n", out)

	out, err = run(t, "search", "hello", "--select", "1")
	require.NoError(t, err)
	assert.Equal(t, "ran Say Hello ("+sampleID+"/hello)\n", out)
	assert.Equal(t, []string{"hello"}, p.snapshot(&p.ran))

	_, err = run(t, "search", "hello", "--select", "5")
	assert.ErrorContains(t, err, "only 1 result")
}

func TestSearch_BadDrill(t *testing.T) {
	setup(t)
	_, err := run(t, "search", "--drill", "nonsense")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	_, p := setup(t)

	out, err := run(t, "open", "dock://"+sampleID+"/hello")
	require.NoError(t, err)
	assert.Equal(t, "handled dock://"+sampleID+"/hello\n", out)

	_, err = run(t, "open", "dock://"+sampleID+"/other")
	assert.ErrorIs(t, err, host.ErrNoRoute)
	_, err = run(t, "open", "https://example.com")
	assert.ErrorIs(t, err, host.ErrNoRoute)
	assert.Equal(t, []string{"link:/hello", "link:/other"}, p.snapshot(&p.ran))
}

func TestPublish_WaitsForDelivery(t *testing.T) {
	_, p := setup(t)

	out, err := run(t, "publish", "ping", "pong", "--wait", "1000")
	require.NoError(t, err)
	assert.Equal(t, "posted ping to 1 subscriber\n", out)
	assert.Equal(t, []string{"pong"}, p.snapshot(&p.pinged))

	out, err = run(t, "publish", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "posted nobody to 0 subscribers\n", out)
}

func TestKeysPressMenu(t *testing.T) {
	_, p := setup(t)

	out, err := run(t, "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "⌘G")
	assert.Contains(t, out, "Greet")

	_, err = run(t, "press", "cmd+g")
	assert.ErrorIs(t, err, host.ErrNoFocus)

	out, err = run(t, "press", "cmd+g", "--focus", sampleID)
	require.NoError(t, err)
	assert.Equal(t, "⌘G ran "+sampleID+"/greet (Greet)\n", out)
	assert.Equal(t, []string{"greet"}, p.snapshot(&p.ran))

	_, err = run(t, "press", "cmd+x", "--focus", sampleID)
	assert.ErrorIs(t, err, host.ErrNoBinding)

	out, err = run(t, "menu", "--focus", sampleID)
	require.NoError(t, err)
	assert.Contains(t, out, "Say Hello")
	assert.Contains(t, out, "⌘G")
}

func TestConfig_SetGet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	out, err := run(t, "config", "search.max_results", "25")
	require.NoError(t, err)
	assert.Equal(t, "search.max_results = 25 (global)\n", out)

	out, err = run(t, "config", "search.max_results")
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)

	_, err = run(t, "config", "no.such_key", "1")
	assert.Error(t, err)
}

func TestInit_CreatesLocalConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created .dock/config.yaml")
	assert.FileExists(t, ".dock/config.yaml")

	_, err = run(t, "init")
	assert.ErrorIs(t, err, errConfigExists)

	out, err = run(t, "config", "search.max_results", "7")
	require.NoError(t, err)
	assert.Equal(t, "search.max_results = 7 (local)\n", out)
}

func TestGuide(t *testing.T) {
	out, err := run(t, "guide", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "# dock")

	_, err = run(t, "guide", "nope")
	assert.ErrorContains(t, err, "Available:")

	out, err = run(t, "guide", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "Key bindings")
	assert.NotContains(t, out, "guide ")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "SDK Version:")
}

func TestStorage(t *testing.T) {
	h, _ := setup(t)

	st, err := h.Storage()
	require.NoError(t, err)
	require.NoError(t, st.Scope(sampleID).Set(context.Background(), "a", []byte("1")))

	out, err := run(t, "storage")
	require.NoError(t, err)
	assert.Contains(t, out, sampleID)
	assert.Contains(t, out, "1 key")

	_, err = run(t, "storage", "purge", sampleID)
	assert.ErrorContains(t, err, "not a compiled-in dock")
}
