// render.go turns dock surfaces and palette rows into terminal output.
//
// Separated from the commands so show, search and guide render the same way.
// Terminal output gets glamour rendering for Markdown and lipgloss colour
// for accents; pipes and redirects get the raw text.

package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jpl-au/dock/cmd"
	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/host"
	"github.com/jpl-au/dock/internal/palette"
	"golang.org/x/term"
)

// errNoHost is returned when a command runs before the host exists.
var errNoHost = errors.New("dock host not initialised")

// currentHost returns the shared host. Tests replace it.
var currentHost = cmd.Host

func hostOf() (*host.Host, error) {
	h := currentHost()
	if h == nil {
		return nil, errNoHost
	}
	return h, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// renderMarkdown renders md for the terminal, or returns it unchanged when
// raw is set or stdout is not a terminal.
func renderMarkdown(md string, raw bool) string {
	if raw || !isTerminal() {
		return md
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return out
}

// renderSurface renders a dock surface.
func renderSurface(s extension.Surface, raw bool) string {
	switch v := s.(type) {
	case nil:
		return ""
	case extension.Markdown:
		return renderMarkdown(string(v), raw)
	case extension.Text:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// accentColours maps accents to ANSI colours.
var accentColours = map[extension.Accent]lipgloss.Color{
	extension.AccentBlue:   lipgloss.Color("4"),
	extension.AccentGreen:  lipgloss.Color("2"),
	extension.AccentOrange: lipgloss.Color("208"),
	extension.AccentRed:    lipgloss.Color("1"),
	extension.AccentPurple: lipgloss.Color("5"),
	extension.AccentPink:   lipgloss.Color("213"),
	extension.AccentYellow: lipgloss.Color("3"),
	extension.AccentTeal:   lipgloss.Color("6"),
}

var (
	categoryStyle = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

func paint(s string, style lipgloss.Style, colour bool) string {
	if !colour {
		return s
	}
	return style.Render(s)
}

// formatResults writes results grouped by category with a 1-based index per
// row, the index --select takes.
func formatResults(res palette.Results, colour bool) string {
	var b strings.Builder
	n := 0
	for _, g := range res.Groups {
		b.WriteString(paint(g.Category, categoryStyle, colour) + "\n")
		for _, it := range g.Items {
			n++
			marker := "•"
			if c, ok := accentColours[it.Accent]; ok {
				marker = paint(marker, lipgloss.NewStyle().Foreground(c), colour)
			}
			fmt.Fprintf(&b, "%3d %s %s", n, marker, it.Title)
			if it.InlineResult != "" {
				fmt.Fprintf(&b, "  %s", it.InlineResult)
			}
			if it.HasDrillDown {
				b.WriteString(" ›")
			}
			var meta []string
			if it.Subtitle != "" {
				meta = append(meta, it.Subtitle)
			}
			if it.ShortcutHint != "" {
				meta = append(meta, it.ShortcutHint)
			}
			meta = append(meta, it.Extension+"/"+it.ID)
			fmt.Fprintf(&b, "  %s\n", paint(strings.Join(meta, "  "), dimStyle, colour))
		}
	}
	if len(res.TimedOut) > 0 {
		fmt.Fprintf(&b, "timed out: %s\n", strings.Join(res.TimedOut, ", "))
	}
	if len(res.Failed) > 0 {
		fmt.Fprintf(&b, "failed: %s\n", strings.Join(res.Failed, ", "))
	}
	return b.String()
}
