package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	r := Compute("milk\neggs\nbread\n", "milk\nbutter\nbread\n", "rev 1", "current")
	assert.True(t, r.Changed())
	assert.Equal(t, 1, r.Added)
	assert.Equal(t, 1, r.Removed)
	assert.Equal(t, "  milk\n- eggs\n+ butter\n  bread\n", r.Diff)

	out := r.Format(false)
	assert.True(t, strings.HasPrefix(out, "--- rev 1\n+++ current\n"))
}

func TestCompute_Unchanged(t *testing.T) {
	r := Compute("same\n", "same\n", "a", "b")
	assert.False(t, r.Changed())
	assert.Equal(t, "  same\n", r.Diff)
}

func TestCompute_CollapsesLongContext(t *testing.T) {
	var lines []string
	for i := range 10 {
		lines = append(lines, strings.Repeat("x", i+1))
	}
	old := strings.Join(lines, "\n") + "\n"
	r := Compute(old, old+"new\n", "a", "b")
	assert.Contains(t, r.Diff, "  ...\n")
	assert.Contains(t, r.Diff, "+ new\n")
	assert.Equal(t, 1, r.Added)
}

func TestColourise_KeepsText(t *testing.T) {
	out := Colourise("  same\n- gone\n+ here\n")
	assert.Contains(t, out, "same")
	assert.Contains(t, out, "- gone")
	assert.Contains(t, out, "+ here")
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		from    int
		to      int
		wantErr string
	}{
		{name: "valid range", input: "1:3", from: 1, to: 3},
		{name: "same revision", input: "2:2", from: 2, to: 2},
		{name: "large revisions", input: "100:999", from: 100, to: 999},
		{name: "empty colon", input: ":", wantErr: "both revisions required"},
		{name: "missing start", input: ":5", wantErr: "both revisions required"},
		{name: "missing end", input: "3:", wantErr: "both revisions required"},
		{name: "no colon", input: "5", wantErr: "expected from:to"},
		{name: "too many colons", input: "1:2:3", wantErr: "expected from:to"},
		{name: "non-numeric start", input: "abc:5", wantErr: "invalid start revision"},
		{name: "non-numeric end", input: "3:xyz", wantErr: "invalid end revision"},
		{name: "zero start", input: "0:3", wantErr: "start revision must be >= 1"},
		{name: "negative end", input: "1:-5", wantErr: "end revision must be >= 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseRange(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}
