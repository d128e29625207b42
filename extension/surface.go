// surface.go defines the opaque UI handles docks hand to the host.
//
// The host never inspects a Surface beyond checking for the few concrete
// types it knows how to display. Everything else is passed through to
// whichever front end embeds the host.

package extension

// Surface is an opaque, toolkit-specific view produced by a dock.
type Surface any

// Markdown is a Surface the CLI renders as formatted markdown.
type Markdown string

// Text is a Surface the CLI prints verbatim.
type Text string
