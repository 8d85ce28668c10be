package term

// KeyCode identifies what was typed: either a printable Unicode scalar
// (Char) or one of the named keys.
type KeyCode struct {
	kind named
	ch   rune
	fn   int
}

type named int

const (
	keyChar named = iota
	keyEnter
	keyTab
	keyBackspace
	keyEscape
	keyLeft
	keyRight
	keyUp
	keyDown
	keyHome
	keyEnd
	keyPageUp
	keyPageDown
	keyInsert
	keyDelete
	keyBackTab
	keyFn
)

// Char returns the KeyCode for a printable Unicode scalar.
func Char(r rune) KeyCode { return KeyCode{kind: keyChar, ch: r} }

// Fn returns the KeyCode for function key n (1..=12).
func Fn(n int) KeyCode { return KeyCode{kind: keyFn, fn: n} }

var (
	KeyEnter     = KeyCode{kind: keyEnter}
	KeyTab       = KeyCode{kind: keyTab}
	KeyBackspace = KeyCode{kind: keyBackspace}
	KeyEscape    = KeyCode{kind: keyEscape}
	KeyLeft      = KeyCode{kind: keyLeft}
	KeyRight     = KeyCode{kind: keyRight}
	KeyUp        = KeyCode{kind: keyUp}
	KeyDown      = KeyCode{kind: keyDown}
	KeyHome      = KeyCode{kind: keyHome}
	KeyEnd       = KeyCode{kind: keyEnd}
	KeyPageUp    = KeyCode{kind: keyPageUp}
	KeyPageDown  = KeyCode{kind: keyPageDown}
	KeyInsert    = KeyCode{kind: keyInsert}
	KeyDelete    = KeyCode{kind: keyDelete}
	KeyBackTab   = KeyCode{kind: keyBackTab}
)

// IsChar reports whether this code is Char(r), returning r when true.
func (k KeyCode) IsChar() (rune, bool) {
	if k.kind == keyChar {
		return k.ch, true
	}
	return 0, false
}

// IsFn reports whether this code is Fn(n), returning n when true.
func (k KeyCode) IsFn() (int, bool) {
	if k.kind == keyFn {
		return k.fn, true
	}
	return 0, false
}

// String renders a human-readable name, useful for logging/tests.
func (k KeyCode) String() string {
	switch k.kind {
	case keyChar:
		return "Char(" + string(k.ch) + ")"
	case keyEnter:
		return "Enter"
	case keyTab:
		return "Tab"
	case keyBackspace:
		return "Backspace"
	case keyEscape:
		return "Escape"
	case keyLeft:
		return "Left"
	case keyRight:
		return "Right"
	case keyUp:
		return "Up"
	case keyDown:
		return "Down"
	case keyHome:
		return "Home"
	case keyEnd:
		return "End"
	case keyPageUp:
		return "PageUp"
	case keyPageDown:
		return "PageDown"
	case keyInsert:
		return "Insert"
	case keyDelete:
		return "Delete"
	case keyBackTab:
		return "BackTab"
	case keyFn:
		return "Fn"
	default:
		return "Unknown"
	}
}

// KeyInput is a single parsed keystroke, with modifier flags. Shift is
// reported only for named keys where the terminal actually reports it;
// letters arrive as their already-shifted char (e.g. 'A' not 'a'+shift).
type KeyInput struct {
	Code  KeyCode
	Ctrl  bool
	Alt   bool
	Shift bool
}
