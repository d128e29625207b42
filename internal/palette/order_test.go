package palette

import (
	"testing"

	"github.com/jpl-au/dock/extension"
	"github.com/stretchr/testify/assert"
)

func titles(groups []Group) []string {
	return Results{Groups: groups}.Titles()
}

func TestDedup_Precedence(t *testing.T) {
	items := []Item{
		{Extension: "a", ID: "x", Title: "static", Kind: KindStatic},
		{Extension: "a", ID: "x", Title: "dynamic", Kind: KindDynamic},
		{Extension: "a", ID: "x", Title: "inline", Kind: KindInline},
		{Extension: "b", ID: "x", Title: "other dock", Kind: KindStatic},
	}
	got := dedup(items)
	assert.Len(t, got, 2)
	assert.Equal(t, "dynamic", got[0].Title)
	assert.Equal(t, "other dock", got[1].Title)

	got = dedup([]Item{
		{Extension: "a", ID: "x", Title: "static", Kind: KindStatic},
		{Extension: "a", ID: "x", Title: "inline", Kind: KindInline},
	})
	assert.Equal(t, []Item{{Extension: "a", ID: "x", Title: "inline", Kind: KindInline}}, got)
}

func TestGroup_CategoryOrder(t *testing.T) {
	items := []Item{
		{ID: "1", Title: "z", Category: "Custom B"},
		{ID: "2", Title: "y", Category: extension.CategoryUtilities},
		{ID: "3", Title: "x", Category: "Custom A"},
		{ID: "4", Title: "w", Category: extension.CategorySuggested},
		{ID: "5", Title: "v", Category: "Custom B"},
	}
	groups := group(items, DefaultCategories)

	var cats []string
	for _, g := range groups {
		cats = append(cats, g.Category)
	}
	assert.Equal(t, []string{extension.CategorySuggested, extension.CategoryUtilities, "Custom B", "Custom A"}, cats)
	assert.Equal(t, []string{"w", "y", "v", "z", "x"}, titles(groups))
}

func TestGroup_WithinGroupOrder(t *testing.T) {
	items := []Item{
		{Extension: "b", ID: "1", Title: "beta", Category: "C"},
		{Extension: "a", ID: "2", Title: "Alpha", Category: "C"},
		{Extension: "a", ID: "3", Title: "gamma", Category: "C", Priority: 5},
		{Extension: "a", ID: "4", Title: "beta", Category: "C"},
		{Extension: "a", ID: "5", Title: "alpha", Category: "C"},
	}
	groups := group(items, nil)
	assert.Len(t, groups, 1)

	var ids []string
	for _, it := range groups[0].Items {
		ids = append(ids, it.ID)
	}
	// priority desc, title case-insensitive, then exact title, extension, id
	assert.Equal(t, []string{"3", "2", "5", "4", "1"}, ids)
}

func TestGroup_Deterministic(t *testing.T) {
	items := []Item{
		{Extension: "b", ID: "1", Title: "same", Category: "C"},
		{Extension: "a", ID: "2", Title: "same", Category: "C"},
		{Extension: "a", ID: "1", Title: "same", Category: "C"},
	}
	reversed := []Item{items[2], items[1], items[0]}
	assert.Equal(t, group(items, nil), group(reversed, nil))
}

func TestMatches(t *testing.T) {
	a := extension.Action{Title: "Show Time", Keywords: []string{"Clock", "now"}}
	tests := []struct {
		q    string
		want bool
	}{
		{"", true},
		{"show", true},
		{"time", true},
		{"clock", true},
		{"no", true},
		{"date", false},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			assert.Equal(t, tt.want, matches(a, tt.q))
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{in: "com.jpl.calc/history", want: Target{Extension: "com.jpl.calc", Action: "history"}},
		{in: "a/b/c", want: Target{Extension: "a", Action: "b/c"}},
		{in: "a", wantErr: true},
		{in: "/b", wantErr: true},
		{in: "a/", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAction)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestResults_Find(t *testing.T) {
	r := Results{Groups: []Group{
		{Category: "A", Items: []Item{{Extension: "a", ID: "1", Title: "one"}}},
		{Category: "B", Items: []Item{{Extension: "b", ID: "2", Title: "two"}}},
	}}
	it, ok := r.Find(Target{Extension: "b", Action: "2"})
	assert.True(t, ok)
	assert.Equal(t, "two", it.Title)

	_, ok = r.Find(Target{Extension: "a", Action: "2"})
	assert.False(t, ok)
}
