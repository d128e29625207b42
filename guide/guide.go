// Package guide holds the embedded pages behind "dock guide" and the MCP
// dock_guide tool.
package guide

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed *.md
var files embed.FS

// Main is the page shown when no topic is given.
const Main = "guide"

// ErrUnknownTopic is returned by Get for a topic with no page.
var ErrUnknownTopic = errors.New("unknown guide topic")

// Topic describes one page.
type Topic struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Get returns a page by topic. Topics are case-insensitive and may carry
// the .md suffix; an empty topic returns the main page.
func Get(topic string) (string, error) {
	name := normalise(topic)
	data, err := files.ReadFile(name + ".md")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns the topic names other than the main page.
func List() ([]string, error) {
	topics, err := Topics()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names, nil
}

// Topics returns every page other than the main one with the title taken
// from its first heading, in name order.
func Topics() ([]Topic, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []Topic
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == Main {
			continue
		}
		data, err := files.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Topic{Name: name, Title: title(string(data), name)})
	}
	return out, nil
}

func normalise(topic string) string {
	name := strings.ToLower(strings.TrimSpace(topic))
	name = strings.TrimSuffix(name, ".md")
	if name == "" {
		return Main
	}
	return name
}

// title returns the first markdown heading, or def.
func title(page, def string) string {
	sc := bufio.NewScanner(strings.NewReader(page))
	for sc.Scan() {
		if t, ok := strings.CutPrefix(sc.Text(), "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return def
}
