// resources.go implements MCP resource handlers for dock descriptions.
//
// Resources give LLM clients read-only context about a dock without calling
// a tool: its identity, state, capabilities and palette contributions.
//
// Design: resource URIs use their own scheme, dock-info://{id}, so they can
// never be confused with dock:// deep links, which trigger dock code.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jpl-au/dock/internal/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
)

// ResourcePrefix is the URI prefix of dock resources.
const ResourcePrefix = "dock-info://"

var (
	// ErrInvalidURI indicates a malformed resource URI.
	ErrInvalidURI = errors.New("invalid URI")
	// ErrUnknownDock indicates the URI names no loaded dock.
	ErrUnknownDock = errors.New("unknown dock")
)

type dockResource struct {
	lifecycle.Info
	Actions     []string `json:"actions,omitempty"`
	Inlines     []string `json:"inlines,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Surface     string   `json:"surface,omitempty"`
}

// readDock handles dock-info://{id} resource requests.
func (h *handlers) readDock(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id, err := parseDockURI(uri)
	if err != nil {
		return nil, err
	}

	var res *dockResource
	for _, info := range h.h.Docks() {
		if info.Identity.ID == id {
			res = &dockResource{Info: info}
			break
		}
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDock, id)
	}

	reg := h.h.Palette().Registry()
	for _, a := range reg.Actions(id) {
		res.Actions = append(res.Actions, a.Title)
	}
	for _, a := range reg.Inlines(id) {
		res.Inlines = append(res.Inlines, a.Title)
	}
	res.Placeholder = reg.Placeholder(id)
	if s, ok := h.h.Lifecycle().Surface(id); ok && s != nil {
		res.Surface = fmt.Sprint(s)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// parseDockURI extracts the dock identifier from dock-info://{id}.
func parseDockURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, ResourcePrefix) {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, ResourcePrefix), "/")
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	return id, nil
}
