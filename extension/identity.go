// identity.go defines the immutable identity record of a dock.
//
// Identities are produced by the manifest parser and owned by the lifecycle
// controller for the whole life of a dock instance. The ID is the primary key
// everywhere in the host: bus ownership, palette entries, storage scopes and
// deep-link routing all use it.

package extension

import "github.com/jpl-au/dock/internal/version"

// Identity describes a dock.
type Identity struct {
	ID            string `json:"id"`   // reverse-DNS, e.g. "com.jpl.clock"
	Name          string `json:"name"` // display name
	Version       string `json:"version"`
	MinSDKVersion string `json:"min_sdk_version"`
	Author        string `json:"author,omitempty"`
	Description   string `json:"description,omitempty"`
	Icon          string `json:"icon,omitempty"`
}

// CheckCompatibility reports whether the dock can run on a host implementing
// the running SDK version. Malformed versions compare as 0.0.0.
func CheckCompatibility(id Identity, running string) version.Compatibility {
	return version.Check(id.MinSDKVersion, running)
}
