// Package frame implements the frame model described in spec.md §4.B: a
// fixed-size grid of styled cells, built up either by sequential text
// writing or by explicit cell placement. Like style, it performs no I/O;
// a Frame is a plain value that term.Controller.Draw consumes.
package frame

import (
	"errors"
	"strings"

	"github.com/mattn/go-runewidth"

	"tuicore/style"
)

// ErrOutOfBounds is returned by PutCell and SetCursor when the given
// position falls outside the frame's bounds.
var ErrOutOfBounds = errors.New("frame: position out of bounds")

// Size is a terminal (or frame) dimension in character cells.
// Both fields are strictly positive for a live terminal; zero is
// permitted only to represent a detached/degenerate frame.
type Size struct {
	Rows uint16
	Cols uint16
}

// Position is a zero-based, row-major coordinate.
type Position struct {
	Row uint16
	Col uint16
}

// Cell is a single styled grid entry. Width is the East-Asian display
// width of Ch: 1 for a normal cell, 2 for the leading cell of a wide
// character, and 0 for the trailing continuation cell of a wide
// character (which always repeats the leading cell's Style).
type Cell struct {
	Ch    rune
	Width uint8
	Style style.Style
}

// blankCell is the initial/cleared value of every cell: a space, width
// 1, default style.
var blankCell = Cell{Ch: ' ', Width: 1, Style: style.Default()}

// Frame owns a Size and a dense rows*cols grid of Cells, plus the
// writer state (current cursor and composition style) used by Write.
type Frame struct {
	size   Size
	cells  []Cell
	cursor Position
	comp   style.Style
}

// New allocates a Frame of the given size with every cell initialized to
// a blank space in the default style, and the cursor at (0,0).
func New(size Size) *Frame {
	f := &Frame{size: size}
	f.cells = make([]Cell, int(size.Rows)*int(size.Cols))
	for i := range f.cells {
		f.cells[i] = blankCell
	}
	f.comp = style.Default()
	return f
}

// Size returns the frame's dimensions.
func (f *Frame) Size() Size { return f.size }

// Cursor returns the writer's current cursor position.
func (f *Frame) Cursor() Position { return f.cursor }

// SetCursor moves the writer's cursor to pos. pos.Col may equal
// f.size.Cols (the one-past-the-end "about to wrap" position); pos.Row
// must be a valid row. Any other out-of-bounds position is an error and
// leaves the cursor unchanged.
func (f *Frame) SetCursor(pos Position) error {
	if pos.Row >= f.size.Rows || pos.Col > f.size.Cols {
		return ErrOutOfBounds
	}
	f.cursor = pos
	return nil
}

// SetStyle sets the composition style used by subsequent Write calls,
// equivalent to embedding that style value in the text stream.
// style.RESET clears the composition style back to default.
func (f *Frame) SetStyle(s style.Style) {
	if s.IsReset() {
		f.comp = style.Default()
		return
	}
	f.comp = s
}

// Style returns the current composition style.
func (f *Frame) Style() style.Style { return f.comp }

// index returns the flat cell index for (row, col), and whether it is
// in bounds.
func (f *Frame) index(row, col uint16) (int, bool) {
	if row >= f.size.Rows || col >= f.size.Cols {
		return 0, false
	}
	return int(row)*int(f.size.Cols) + int(col), true
}

// Get returns the cell at pos, or the zero Cell if out of bounds.
func (f *Frame) Get(pos Position) Cell {
	i, ok := f.index(pos.Row, pos.Col)
	if !ok {
		return Cell{}
	}
	return f.cells[i]
}

// PutCell places cell directly at pos, bypassing the sequential writer.
// It is a contract violation — and returns ErrOutOfBounds — to place a
// cell outside the frame.
func (f *Frame) PutCell(pos Position, cell Cell) error {
	i, ok := f.index(pos.Row, pos.Col)
	if !ok {
		return ErrOutOfBounds
	}
	f.cells[i] = cell
	return nil
}

// isControl reports whether r is a control character forbidden in a
// cell: anything below 0x20 other than the writer-special newline, or
// 0x7F (DEL). Embedded styles are not text and never reach this check.
func isControl(r rune) bool {
	return (r < 0x20 && r != '\n') || r == 0x7f
}

// WriteString writes s to the frame starting at the current cursor,
// interpreting it per spec.md §4.B: newline moves to the next row,
// column 0 (discarding further text once past the last row); carriage
// return resets the column; tab advances to the next multiple of 8,
// clipped to cols; other control characters are dropped; printable
// runes are placed with their East-Asian display width, wrapping the
// cursor to the next row when the remaining width in the row is
// insufficient.
func (f *Frame) WriteString(s string) {
	for _, r := range s {
		f.writeRune(r)
	}
}

// Write implements io.Writer-like byte-stream input for convenience
// callers (e.g. fmt.Fprintf(frame, ...)); it decodes UTF-8 and defers to
// WriteString. Frame never returns an error or a short write: len(p) is
// always returned with a nil error, matching the teacher's sequential
// drawTextUnlocked which never fails on malformed input (clipping
// silently discards instead).
func (f *Frame) Write(p []byte) (int, error) {
	f.WriteString(string(p))
	return len(p), nil
}

// pastLastRow reports whether the cursor has been clipped off the
// bottom of the frame: writing further text is a silent no-op until the
// cursor is explicitly repositioned.
func (f *Frame) pastLastRow() bool {
	return f.cursor.Row >= f.size.Rows
}

func (f *Frame) writeRune(r rune) {
	if f.pastLastRow() {
		return
	}
	switch r {
	case '\n':
		f.cursor.Row++
		f.cursor.Col = 0
		return
	case '\r':
		f.cursor.Col = 0
		return
	case '\t':
		next := (f.cursor.Col/8 + 1) * 8
		if next > f.size.Cols {
			next = f.size.Cols
		}
		f.cursor.Col = next
		return
	}
	if isControl(r) {
		return
	}

	w := runewidth.RuneWidth(r)
	if w <= 0 {
		// Width-0 scalars are discarded: this implementation does not
		// track "follows the continuation cell of a wide char" combining
		// state, since no writer path leaves that cell addressable here.
		return
	}

	if f.cursor.Col >= f.size.Cols {
		f.wrap()
		if f.pastLastRow() {
			return
		}
	}
	if w == 2 && f.cursor.Col+1 >= f.size.Cols {
		// Wide char won't fit: pad the trailing cell with a space in the
		// current style, then wrap.
		if f.cursor.Col < f.size.Cols {
			f.PutCell(f.cursor, Cell{Ch: ' ', Width: 1, Style: f.comp})
		}
		f.wrap()
		if f.pastLastRow() {
			return
		}
	}

	switch w {
	case 1:
		f.PutCell(f.cursor, Cell{Ch: r, Width: 1, Style: f.comp})
		f.cursor.Col++
	case 2:
		f.PutCell(f.cursor, Cell{Ch: r, Width: 2, Style: f.comp})
		f.PutCell(Position{Row: f.cursor.Row, Col: f.cursor.Col + 1}, Cell{Ch: 0, Width: 0, Style: f.comp})
		f.cursor.Col += 2
	default:
		// Wider-than-2 reported widths (rare, e.g. some emoji under some
		// width tables) are clamped to 2 cells per spec.md's cell model.
		f.PutCell(f.cursor, Cell{Ch: r, Width: 2, Style: f.comp})
		f.PutCell(Position{Row: f.cursor.Row, Col: f.cursor.Col + 1}, Cell{Ch: 0, Width: 0, Style: f.comp})
		f.cursor.Col += 2
	}
}

func (f *Frame) wrap() {
	f.cursor.Row++
	f.cursor.Col = 0
}

// Clone returns an independent deep copy of f: the copy's cell grid can
// be mutated without affecting f. Used by the renderer to snapshot the
// last successfully drawn frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{size: f.size, cursor: f.cursor, comp: f.comp}
	out.cells = make([]Cell, len(f.cells))
	copy(out.cells, f.cells)
	return out
}

// String renders the frame's visible text, row by row with trailing
// spaces trimmed and rows newline-joined, ignoring style. This is a
// debug/test convenience generalizing the teacher's per-cell
// Buffer.Get(x,y) assertions to whole-row comparisons.
func (f *Frame) String() string {
	var b strings.Builder
	for r := uint16(0); r < f.size.Rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		row := make([]rune, 0, f.size.Cols)
		for c := uint16(0); c < f.size.Cols; c++ {
			cell := f.Get(Position{Row: r, Col: c})
			if cell.Width == 0 {
				continue
			}
			ch := cell.Ch
			if ch == 0 {
				ch = ' '
			}
			row = append(row, ch)
		}
		b.WriteString(strings.TrimRight(string(row), " "))
	}
	return b.String()
}
