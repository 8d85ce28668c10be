package term

import "tuicore/frame"

// EventKind tags which variant an Event carries.
type EventKind int

const (
	// EventInput carries a parsed keystroke.
	EventInput EventKind = iota
	// EventResize carries the terminal's new size.
	EventResize
	// EventFdReady carries a caller-supplied file descriptor's readiness.
	EventFdReady
)

// Event is a tagged TerminalEvent: exactly one of Input, Resize, or
// FdReady is meaningful, selected by Kind.
type Event struct {
	Kind EventKind

	Input  KeyInput
	Resize frame.Size

	Fd       int
	Readable bool
	Writable bool
}
