// Package manifest parses dock manifests (dock.yaml) into identity records.
//
// Every compiled-in dock embeds its manifest and registers the parsed
// identity from init(). Missing fields fall back to documented defaults so a
// sparse manifest still yields a usable identity; version strings are kept
// as written and only interpreted when the host checks compatibility.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jpl-au/dock/extension"
	"github.com/jpl-au/dock/internal/version"
	"gopkg.in/yaml.v3"
)

// Defaults applied to missing manifest fields.
const (
	DefaultID            = "unknown"
	DefaultName          = "Unnamed"
	DefaultVersion       = "0.0.0"
	DefaultMinSDKVersion = "1.0.0"
	DefaultAuthor        = "Unknown"
)

// ErrMalformed is returned when the manifest is not valid YAML.
var ErrMalformed = errors.New("malformed manifest")

// File is the on-disk manifest layout.
type File struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Version       string `yaml:"version"`
	MinSDKVersion string `yaml:"min_sdk_version"`
	Author        string `yaml:"author"`
	Description   string `yaml:"description"`
	Icon          string `yaml:"icon"`
}

// Parse reads a manifest and returns the identity with defaults applied.
func Parse(data []byte) (extension.Identity, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return extension.Identity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return f.Identity(), nil
}

// MustParse is Parse for embedded manifests; it panics on malformed input.
// Use it from init() where a broken manifest is a build mistake.
func MustParse(data []byte) extension.Identity {
	id, err := Parse(data)
	if err != nil {
		panic("manifest: " + err.Error())
	}
	return id
}

// Identity converts the file to an identity, applying defaults.
func (f File) Identity() extension.Identity {
	return extension.Identity{
		ID:            or(f.ID, DefaultID),
		Name:          or(f.Name, DefaultName),
		Version:       or(f.Version, DefaultVersion),
		MinSDKVersion: or(f.MinSDKVersion, DefaultMinSDKVersion),
		Author:        or(f.Author, DefaultAuthor),
		Description:   strings.TrimSpace(f.Description),
		Icon:          f.Icon,
	}
}

// Warnings lists anomalies worth logging: version strings that will compare
// as 0.0.0 and the fallback identifier.
func Warnings(id extension.Identity) []string {
	var w []string
	if id.ID == DefaultID {
		w = append(w, "manifest has no id")
	}
	if !version.Valid(id.Version) {
		w = append(w, fmt.Sprintf("version %q is not a semantic version", id.Version))
	}
	if !version.Valid(id.MinSDKVersion) {
		w = append(w, fmt.Sprintf("min_sdk_version %q is not a semantic version; treated as 0.0.0", id.MinSDKVersion))
	}
	return w
}

func or(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
