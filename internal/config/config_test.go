package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var c Config
	assert.False(t, c.DevMode())
	assert.False(t, c.StrictCapabilities())
	assert.Equal(t, 50*time.Millisecond, c.ProviderTimeout())
	assert.Equal(t, 50*time.Millisecond, c.Debounce())
	assert.Equal(t, 10, c.MaxResults())
	assert.Equal(t, 2*time.Second, c.HookTimeout())
	assert.Equal(t, "warning", c.LogLevel())
	assert.Nil(t, c.Categories())
	assert.NotEmpty(t, c.StorageDir())
}

func TestGetSet(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"host.dev_mode", "TRUE", "true"},
		{"host.strict_capabilities", "false", "false"},
		{"host.user_agent", "dock-test/1", "dock-test/1"},
		{"host.log_level", "Debug", "debug"},
		{"search.provider_timeout", "75ms", "75ms"},
		{"search.debounce", "0s", "0s"},
		{"search.max_results", "25", "25"},
		{"search.categories", "Calculations, Suggested", "Calculations,Suggested"},
		{"lifecycle.hook_timeout", "1s", "1s"},
		{"storage.dir", "/tmp/dock", "/tmp/dock"},
		{"keys.com.jpl.notes/new", "cmd+n", "cmd+n"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			var c Config
			assert.False(t, c.IsSet(tt.key))
			require.NoError(t, c.Set(tt.key, tt.value))
			got, err := c.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, c.IsSet(tt.key))
		})
	}
}

func TestSet_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"host.dev_mode", "yes"},
		{"host.log_level", "loud"},
		{"search.provider_timeout", "soon"},
		{"search.provider_timeout", "1h"},
		{"search.max_results", "0"},
		{"search.max_results", "many"},
		{"lifecycle.hook_timeout", "1ms"},
		{"keys.com.jpl.notes/new", "hyper+n"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			var c Config
			err := c.Set(tt.key, tt.value)
			assert.ErrorIs(t, err, ErrInvalidValue)
			assert.False(t, c.IsSet(tt.key))
		})
	}

	var c Config
	assert.ErrorIs(t, c.Set("nope", "1"), ErrUnknownKey)
	assert.ErrorIs(t, c.Set("keys.nodock", "cmd+n"), ErrUnknownKey)
	_, err := c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeyOverride(t *testing.T) {
	var c Config
	require.NoError(t, c.Set("keys.com.jpl.notes/new", "ctrl+alt+n"))
	v, ok := c.KeyOverride("com.jpl.notes", "new")
	assert.True(t, ok)
	assert.Equal(t, "ctrl+alt+n", v)
	assert.Equal(t, "ctrl+alt+n", c.All()["keys.com.jpl.notes/new"])

	require.NoError(t, c.Set("keys.com.jpl.notes/new", ""))
	_, ok = c.KeyOverride("com.jpl.notes", "new")
	assert.False(t, ok)
}

func TestAll(t *testing.T) {
	var c Config
	all := c.All()
	for _, k := range ValidKeys() {
		assert.Contains(t, all, k)
	}
	assert.Equal(t, "10", all["search.max_results"])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		c, err := LoadFile(filepath.Join(dir, "missing.yaml"), ScopeGlobal)
		require.NoError(t, err)
		assert.Equal(t, 10, c.MaxResults())
	})

	t.Run("round trip", func(t *testing.T) {
		p := filepath.Join(dir, "rt", "config.yaml")
		c, err := LoadFile(p, ScopeLocal)
		require.NoError(t, err)
		require.NoError(t, c.Set("search.max_results", "3"))
		require.NoError(t, c.Set("keys.com.jpl.clock/show", "cmd+shift+t"))
		require.NoError(t, c.Save())

		again, err := LoadFile(p, ScopeLocal)
		require.NoError(t, err)
		assert.Equal(t, 3, again.MaxResults())
		assert.Equal(t, ScopeLocal, again.Scope())
		v, _ := again.KeyOverride("com.jpl.clock", "show")
		assert.Equal(t, "cmd+shift+t", v)
	})

	t.Run("malformed", func(t *testing.T) {
		p := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(p, []byte("search: [oops"), 0644))
		_, err := LoadFile(p, ScopeGlobal)
		assert.ErrorContains(t, err, "malformed config file")
	})

	t.Run("out of bounds", func(t *testing.T) {
		p := filepath.Join(dir, "bounds.yaml")
		require.NoError(t, os.WriteFile(p, []byte("search:\n  max_results: 1000\n"), 0644))
		_, err := LoadFile(p, ScopeGlobal)
		assert.ErrorIs(t, err, ErrInvalidValue)
	})
}
