// events.go defines the host notification topics.
//
// Separated from extension.go to isolate the topic names docks can observe.
// The host posts these on the notification bus as lifecycle transitions
// complete; the payload is the dock identifier as UTF-8 bytes.
//
// Design: Topics are fire-and-forget notifications, not approval requests.
// Docks cannot block or veto a transition by observing it.

package extension

// Host lifecycle topics.
const (
	TopicLoaded    = "dock.loaded"
	TopicActivated = "dock.activated"
	TopicResigned  = "dock.resigned"
	TopicUnloaded  = "dock.unloaded"
	TopicError     = "dock.error"
)
