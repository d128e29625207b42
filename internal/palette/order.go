// order.go merges, deduplicates, groups and sorts dispatch output.
//
// Separated from engine.go so ordering can be tested without providers or
// timing. Given the same inputs the output is always the same: the ordering
// keys are total.

package palette

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jpl-au/dock/extension"
)

// DefaultCategories is the fixed group order. Categories not listed follow
// in the order they were first seen.
var DefaultCategories = []string{
	extension.CategorySuggested,
	extension.CategoryApplications,
	extension.CategoryCommands,
	extension.CategoryDocks,
	extension.CategoryQuickLinks,
	extension.CategoryCalculations,
	extension.CategoryConversions,
	extension.CategoryUtilities,
	extension.CategoryFiles,
	extension.CategoryClipboard,
	extension.CategorySnippets,
	extension.CategoryThemes,
	extension.CategorySystem,
}

// dedup keeps one item per (extension, id), preferring the highest Kind.
// Among equal kinds the first occurrence wins. Input order is otherwise kept.
func dedup(items []Item) []Item {
	best := make(map[Target]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if i, ok := best[k]; ok {
			if it.Kind > out[i].Kind {
				out[i] = it
			}
			continue
		}
		best[k] = len(out)
		out = append(out, it)
	}
	return out
}

// compareItems orders by priority descending, then title ascending ignoring
// case, then extension and id so that ties are still deterministic.
func compareItems(a, b Item) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	if c := strings.Compare(a.Extension, b.Extension); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// group buckets items by category and sorts groups and their members.
func group(items []Item, order []string) []Group {
	rank := make(map[string]int, len(order))
	for i, c := range order {
		if _, ok := rank[c]; !ok {
			rank[c] = i
		}
	}

	byCat := make(map[string]*Group)
	var seen []string
	for _, it := range items {
		g, ok := byCat[it.Category]
		if !ok {
			g = &Group{Category: it.Category}
			byCat[it.Category] = g
			seen = append(seen, it.Category)
		}
		g.Items = append(g.Items, it)
	}

	// Stable sort keeps first-seen order among unlisted categories.
	slices.SortStableFunc(seen, func(a, b string) int {
		ra, oka := rank[a]
		rb, okb := rank[b]
		switch {
		case oka && okb:
			return cmp.Compare(ra, rb)
		case oka:
			return -1
		case okb:
			return 1
		default:
			return 0
		}
	})

	groups := make([]Group, 0, len(seen))
	for _, c := range seen {
		g := byCat[c]
		slices.SortFunc(g.Items, compareItems)
		groups = append(groups, *g)
	}
	return groups
}

// matches reports whether a static or inline action matches q. q must
// already be lowercased; an empty q matches everything.
func matches(a extension.Action, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(a.Title), q) {
		return true
	}
	for _, k := range a.Keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}
