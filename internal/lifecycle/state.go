package lifecycle

// State is a dock's lifecycle state.
//
//	Unloaded --load--> Loaded --activate--> Active <--resign/activate--> Inactive
//	Loaded|Active|Inactive --beginUnload--> Unloading --finishUnload--> Unloaded
type State int32

// Lifecycle states. Unloaded is both the initial and the terminal state.
const (
	Unloaded State = iota
	Loaded
	Active
	Inactive
	Unloading
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Unloading:
		return "unloading"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reachable reports whether the dock has been activated and is not
// unloading: Active or Inactive. Only reachable docks are searched and
// routed to.
func (s State) Reachable() bool {
	return s == Active || s == Inactive
}
