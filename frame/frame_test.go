package frame

import (
	"testing"

	"tuicore/style"
)

func TestNewFrameBlank(t *testing.T) {
	f := New(Size{Rows: 5, Cols: 10})
	if f.Size() != (Size{Rows: 5, Cols: 10}) {
		t.Fatalf("unexpected size: %+v", f.Size())
	}
	if f.Cursor() != (Position{}) {
		t.Fatalf("expected cursor at origin, got %+v", f.Cursor())
	}
	cell := f.Get(Position{Row: 2, Col: 3})
	if cell.Ch != ' ' || cell.Width != 1 {
		t.Fatalf("expected blank cell, got %+v", cell)
	}
}

func TestWriteStringBasic(t *testing.T) {
	f := New(Size{Rows: 3, Cols: 10})
	f.WriteString("Hello")
	for i, want := range "Hello" {
		cell := f.Get(Position{Row: 0, Col: uint16(i)})
		if cell.Ch != want {
			t.Fatalf("cell %d: got %q want %q", i, cell.Ch, want)
		}
	}
	if f.Cursor() != (Position{Row: 0, Col: 5}) {
		t.Fatalf("unexpected cursor: %+v", f.Cursor())
	}
}

func TestWriteStringNewlineCarriageReturnTab(t *testing.T) {
	f := New(Size{Rows: 3, Cols: 20})
	f.WriteString("ab\ncd\re\tf")
	if f.Get(Position{Row: 0, Col: 0}).Ch != 'a' || f.Get(Position{Row: 0, Col: 1}).Ch != 'b' {
		t.Fatalf("row 0 mismatch")
	}
	if f.Get(Position{Row: 1, Col: 0}).Ch != 'e' {
		t.Fatalf("carriage return should reset column before writing e, got %+v", f.Get(Position{Row: 1, Col: 0}))
	}
	if f.Get(Position{Row: 1, Col: 8}).Ch != 'f' {
		t.Fatalf("tab should advance to column 8, got cell %+v", f.Get(Position{Row: 1, Col: 8}))
	}
}

func TestWriteStringClipsPastLastRow(t *testing.T) {
	f := New(Size{Rows: 1, Cols: 3})
	f.WriteString("ab\ncd")
	if f.Get(Position{Row: 0, Col: 0}).Ch != 'a' || f.Get(Position{Row: 0, Col: 1}).Ch != 'b' {
		t.Fatalf("row 0 should retain ab")
	}
	if f.Cursor().Row < f.Size().Rows {
		t.Fatalf("cursor should be clipped past the last row, got %+v", f.Cursor())
	}
}

func TestWriteStringControlCharactersDropped(t *testing.T) {
	f := New(Size{Rows: 1, Cols: 5})
	f.WriteString("a\x01b\x7fc")
	if got := f.String(); got != "abc" {
		t.Fatalf("got %q want %q", got, "abc")
	}
}

func TestWideCharWrapAndClip(t *testing.T) {
	// width 3, height 2: "A世界" — A occupies col0, 世 occupies col1-2
	// (width 2), 界 does not fit in remaining width so it wraps to row 1.
	f := New(Size{Rows: 2, Cols: 3})
	f.WriteString("A世界")

	if f.Get(Position{Row: 0, Col: 0}).Ch != 'A' {
		t.Fatalf("expected A at (0,0)")
	}
	wide := f.Get(Position{Row: 0, Col: 1})
	if wide.Ch != '世' || wide.Width != 2 {
		t.Fatalf("expected wide cell 世 at (0,1), got %+v", wide)
	}
	cont := f.Get(Position{Row: 0, Col: 2})
	if cont.Width != 0 || cont.Style != wide.Style {
		t.Fatalf("expected continuation cell at (0,2), got %+v", cont)
	}
	wrapped := f.Get(Position{Row: 1, Col: 0})
	if wrapped.Ch != '界' {
		t.Fatalf("expected 界 wrapped to row 1, got %+v", wrapped)
	}
}

func TestWideCharClippedWithoutNextRow(t *testing.T) {
	f := New(Size{Rows: 1, Cols: 3})
	f.WriteString("A世界")
	if f.Get(Position{Row: 0, Col: 0}).Ch != 'A' {
		t.Fatalf("expected A at (0,0)")
	}
	// 世 fits in columns 1-2; 界 then finds the row full, wraps off the
	// bottom, and is clipped entirely since there is no row 1.
	if !f.pastLastRow() {
		t.Fatalf("expected cursor clipped past last row")
	}
}

func TestSetCursorOutOfBounds(t *testing.T) {
	f := New(Size{Rows: 2, Cols: 2})
	if err := f.SetCursor(Position{Row: 5, Col: 0}); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := f.SetCursor(Position{Row: 0, Col: 2}); err != nil {
		t.Fatalf("col == cols should be the valid 'about to wrap' position, got %v", err)
	}
}

func TestPutCellOutOfBounds(t *testing.T) {
	f := New(Size{Rows: 2, Cols: 2})
	if err := f.PutCell(Position{Row: 2, Col: 0}, Cell{Ch: 'x', Width: 1}); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestEmbeddedStyleAffectsSubsequentCells(t *testing.T) {
	f := New(Size{Rows: 1, Cols: 5})
	f.SetStyle(style.Default().Bold())
	f.WriteString("ab")
	f.SetStyle(style.RESET)
	f.WriteString("cd")

	if !f.Get(Position{Row: 0, Col: 0}).Style.IsBold() {
		t.Fatalf("expected bold cell")
	}
	if f.Get(Position{Row: 0, Col: 2}).Style.IsBold() {
		t.Fatalf("RESET should clear composition style")
	}
}

func TestDeterministicFramesCompareEqual(t *testing.T) {
	build := func() *Frame {
		f := New(Size{Rows: 3, Cols: 10})
		f.SetStyle(style.Default().Underline())
		f.WriteString("line one\nline two")
		return f
	}
	a, b := build(), build()
	for i := range a.cells {
		if a.cells[i] != b.cells[i] {
			t.Fatalf("cell %d differs: %+v vs %+v", i, a.cells[i], b.cells[i])
		}
	}
}
