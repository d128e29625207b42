package extension

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testExtension is a minimal Extension implementation for testing.
type testExtension struct{}

func (testExtension) Setup(Context) error     { return nil }
func (testExtension) View() (Surface, error) { return Text("test"), nil }

// richExtension implements a spread of optional interfaces.
type richExtension struct{ testExtension }

func (richExtension) DidBecomeActive() error  { return nil }
func (richExtension) WillUnload() error       { return nil }
func (richExtension) HandleURL(*url.URL) bool { return true }
func (richExtension) Actions() []Action       { return nil }
func (richExtension) Search(context.Context, Query) ([]Result, error) {
	return nil, nil
}

func newTest() Extension { return testExtension{} }

func TestRegister_PanicOnDuplicate(t *testing.T) {
	id := Identity{ID: "test.duplicate.panic"}
	Register(id, newTest)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate registration, got none")
		}
	}()

	Register(id, newTest)
}

func TestRegister_PanicOnNilFactory(t *testing.T) {
	assert.Panics(t, func() {
		Register(Identity{ID: "test.nil.factory"}, nil)
	})
}

func TestRegister_Order(t *testing.T) {
	Register(Identity{ID: "test.order.a"}, newTest)
	Register(Identity{ID: "test.order.b"}, newTest)

	ids := IDs()
	var a, b int
	for i, id := range ids {
		switch id {
		case "test.order.a":
			a = i
		case "test.order.b":
			b = i
		}
	}
	assert.Less(t, a, b)

	r, ok := Get("test.order.b")
	require.True(t, ok)
	assert.Equal(t, "test.order.b", r.Identity.ID)
	assert.NotNil(t, r.New())
}

func TestHooksOf(t *testing.T) {
	t.Run("minimal dock has no capabilities", func(t *testing.T) {
		h := HooksOf(testExtension{})
		assert.Equal(t, Capabilities(0), h.Caps)
		assert.Nil(t, h.Activator)
		assert.Nil(t, h.Search)
		assert.Empty(t, h.Caps.String())
	})

	t.Run("optional interfaces are cached", func(t *testing.T) {
		h := HooksOf(richExtension{})
		assert.True(t, h.Caps.Has(CapActivate))
		assert.True(t, h.Caps.Has(CapUnload))
		assert.True(t, h.Caps.Has(CapLinks))
		assert.True(t, h.Caps.Has(CapActions))
		assert.True(t, h.Caps.Has(CapSearch))
		assert.False(t, h.Caps.Has(CapResign))
		assert.NotNil(t, h.Activator)
		assert.NotNil(t, h.Links)
		assert.Nil(t, h.Resigner)
		assert.Equal(t, "activate,unload,links,actions,search", h.Caps.String())
	})
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		in      string
		display string
		wantErr bool
	}{
		{"cmd+shift+k", "⇧⌘K", false},
		{"ctrl-alt-p", "⌃⌥P", false},
		{"Command+Option+Control+Shift+x", "⌃⌥⇧⌘X", false},
		{"n", "N", false},
		{"", "", true},
		{"hyper+k", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			c, err := ParseChord(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.display, c.Display())
		})
	}
}

func TestAccent_Valid(t *testing.T) {
	assert.True(t, AccentTeal.Valid())
	assert.True(t, AccentNone.Valid())
	assert.False(t, Accent("magenta").Valid())
}
