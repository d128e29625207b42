// Package all imports every built-in dock.
// Import this package to register them with the extension registry.
package all

import (
	// Each dock registers itself via init()
	_ "github.com/jpl-au/dock/extension/calc"
	_ "github.com/jpl-au/dock/extension/clock"
	_ "github.com/jpl-au/dock/extension/core"
	_ "github.com/jpl-au/dock/extension/notes"
)
