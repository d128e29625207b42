// flags.go defines constants for all CLI flag names.
//
// Using constants instead of string literals prevents typos and enables
// compile-time checking when flag names are used in both Flags().Type()
// definitions and GetType() calls.
//
// Naming convention: Flag<PascalCaseName> where name matches the kebab-case
// CLI flag (e.g., "dry-run" -> FlagDryRun).

package extension

// Flag name constants for CLI commands.
const (
	// Boolean flags

	FlagAll   = "all"   // Include everything (including unloaded)
	FlagList  = "list"  // List instead of show
	FlagLocal = "local" // Use local scope
	FlagRaw   = "raw"   // Raw output without formatting

	// String flags

	FlagDrill  = "drill"  // Drill-down target as <dock-id>/<action-id>
	FlagFocus  = "focus"  // Dock to focus first
	FlagSource = "source" // Log source (dock identifier) filter

	// Integer flags

	FlagSelect = "select" // 1-based index of the result to run
	FlagLimit  = "limit"  // Maximum rows to show
	FlagWait   = "wait"   // Milliseconds to wait for async delivery
)
