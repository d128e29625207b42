// sdk.go implements semantic version comparison for extension compatibility.
//
// Separated from version.go because build information and the extension
// contract version change for different reasons. Build info is stamped per
// release; the SDK version only moves when the extension contract changes.
//
// Design: Parsing is permissive. A malformed version string compares as
// 0.0.0 rather than returning an error, so a broken manifest can never take
// the host down. Valid lets callers detect and log the anomaly separately.

package version

import (
	"fmt"
	"strconv"
	"strings"
)

// SDK is the extension contract version implemented by this host.
const SDK = "1.3.0"

// Semver is a parsed major.minor.patch triple.
type Semver struct {
	Major, Minor, Patch int
}

// String returns the canonical "major.minor.patch" form.
func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than o.
func (v Semver) Compare(o Semver) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Patch, o.Patch)
	}
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Parse reads a version string such as "1.2", "v1.2.3" or "1.2.3-beta".
// Missing components are zero. Anything after the third component and any
// pre-release or build suffix is ignored. A non-numeric component makes the
// whole version 0.0.0.
func Parse(s string) Semver {
	v, ok := parse(s)
	if !ok {
		return Semver{}
	}
	return v
}

// Valid reports whether s parses without falling back to 0.0.0.
func Valid(s string) bool {
	_, ok := parse(s)
	return ok
}

func parse(s string) (Semver, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Semver{}, false
	}

	var parts [3]int
	for i, p := range strings.SplitN(s, ".", 4) {
		if i == 3 {
			break
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Semver{}, false
		}
		parts[i] = n
	}
	return Semver{Major: parts[0], Minor: parts[1], Patch: parts[2]}, true
}

// Compatibility is the outcome of a compatibility check.
// The zero value is Compatible.
type Compatibility struct {
	Reason string // empty when compatible
}

// Compatible reports whether the check passed.
func (c Compatibility) Compatible() bool {
	return c.Reason == ""
}

// Check reports whether an extension requiring minSDK can run on a host
// implementing running. It never fails: malformed strings compare as 0.0.0.
func Check(minSDK, running string) Compatibility {
	need, have := Parse(minSDK), Parse(running)
	if need.Compare(have) > 0 {
		return Compatibility{
			Reason: fmt.Sprintf("requires SDK %s, host provides %s", need, have),
		}
	}
	return Compatibility{}
}
