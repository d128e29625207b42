// Package diff computes and formats differences between two revisions of a
// text, such as the previous and current text of a note.
package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown before/after changes.
// When equal sections exceed 2*contextLines, they're collapsed with "...".
const contextLines = 3

var (
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Result holds diff output.
type Result struct {
	Old     string `json:"old"`  // old label
	New     string `json:"new"`  // new label
	Diff    string `json:"diff"` // plain diff text
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// Changed reports whether the two texts differ.
func (r Result) Changed() bool {
	return r.Added > 0 || r.Removed > 0
}

// Compute returns a diff between old and new content.
func Compute(oldContent, newContent, oldLabel, newLabel string) Result {
	dmp := diffmatchpatch.New()
	// Line mode keeps whole lines together so the output reads like a
	// unified diff rather than a character soup.
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	d := dmp.DiffMain(a, b, false)
	d = dmp.DiffCharsToLines(d, lines)
	d = dmp.DiffCleanupSemantic(d)

	r := Result{Old: oldLabel, New: newLabel}
	r.Diff, r.Added, r.Removed = format(d)
	return r
}

// format converts diffs to unified-style text and counts changed lines.
func format(diffs []diffmatchpatch.Diff) (string, int, int) {
	var b strings.Builder
	var added, removed int
	for _, d := range diffs {
		// Trim trailing newline to avoid artefact empty string from Split
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		lines := strings.Split(text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range lines {
				b.WriteString("- " + l + "\n")
			}
			removed += len(lines)
		case diffmatchpatch.DiffInsert:
			for _, l := range lines {
				b.WriteString("+ " + l + "\n")
			}
			added += len(lines)
		case diffmatchpatch.DiffEqual:
			if len(lines) > 2*contextLines {
				for i := range contextLines {
					b.WriteString("  " + lines[i] + "\n")
				}
				b.WriteString("  ...\n")
				for i := len(lines) - contextLines; i < len(lines); i++ {
					b.WriteString("  " + lines[i] + "\n")
				}
			} else {
				for _, l := range lines {
					b.WriteString("  " + l + "\n")
				}
			}
		}
	}
	return b.String(), added, removed
}

// Colourise styles removed lines red and added lines green. Styles degrade
// to plain text when the terminal has no colour support.
func Colourise(d string) string {
	var b strings.Builder
	for _, line := range strings.Split(d, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "- "):
			b.WriteString(removedStyle.Render(line) + "\n")
		case strings.HasPrefix(line, "+ "):
			b.WriteString(addedStyle.Render(line) + "\n")
		default:
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// Format returns the full diff with header.
func (r Result) Format(colour bool) string {
	header := fmt.Sprintf("--- %s\n+++ %s\n", r.Old, r.New)
	if colour {
		return headerStyle.Render(strings.TrimSuffix(header, "\n")) + "\n" + Colourise(r.Diff)
	}
	return header + r.Diff
}

// ParseRange parses a revision range like "3:5" into two revision numbers.
// Revisions count from 1.
func ParseRange(s string) (from, to int, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(b, ":") {
		return 0, 0, fmt.Errorf("invalid revision range %q (expected from:to)", s)
	}
	if a == "" || b == "" {
		return 0, 0, fmt.Errorf("invalid revision range %q: both revisions required", s)
	}
	from, err = strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start revision: %w", err)
	}
	to, err = strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid end revision: %w", err)
	}
	if from < 1 {
		return 0, 0, fmt.Errorf("start revision must be >= 1, got %d", from)
	}
	if to < 1 {
		return 0, 0, fmt.Errorf("end revision must be >= 1, got %d", to)
	}
	return from, to, nil
}
