package term

import (
	"strconv"

	"tuicore/frame"
	"tuicore/style"
)

// clearScreen is the full-clear sequence emitted when the incoming
// frame's size doesn't match the retained frame's.
const clearScreen = "\x1b[2J"

// renderDiff walks prev and next in row-major order and returns the
// minimal control-sequence byte stream that transforms what prev
// represents into next, per spec.md §4.D. prev and next must be the
// same size; Controller.Draw is responsible for forcing a full clear
// and a blank retained frame first when sizes disagree.
func renderDiff(prev, next *frame.Frame) []byte {
	size := next.Size()
	var out []byte

	penRow, penCol := -1, -1
	var penStyle style.Style
	styleKnown := false

	for r := uint16(0); r < size.Rows; r++ {
		for c := uint16(0); c < size.Cols; c++ {
			pos := frame.Position{Row: r, Col: c}
			nc := next.Get(pos)
			if nc.Width == 0 {
				// Continuation cell of a wide char: drawn alongside its
				// leading cell below, never independently.
				continue
			}
			if nc == prev.Get(pos) {
				continue
			}

			if penRow != int(r) || penCol != int(c) {
				out = appendMove(out, r, c)
				penRow, penCol = int(r), int(c)
			}
			if !styleKnown || penStyle != nc.Style {
				if isDefaultStyle(nc.Style) {
					out = append(out, "\x1b[0m"...)
				} else {
					out = append(out, nc.Style.SGR()...)
				}
				penStyle = nc.Style
				styleKnown = true
			}

			ch := nc.Ch
			if ch == 0 {
				ch = ' '
			}
			out = append(out, string(ch)...)
			penCol += int(nc.Width)
		}
	}

	if styleKnown && !isDefaultStyle(penStyle) {
		out = append(out, "\x1b[0m"...)
	}
	return out
}

func appendMove(dst []byte, row, col uint16) []byte {
	dst = append(dst, "\x1b["...)
	dst = strconv.AppendInt(dst, int64(row)+1, 10)
	dst = append(dst, ';')
	dst = strconv.AppendInt(dst, int64(col)+1, 10)
	dst = append(dst, 'H')
	return dst
}

func isDefaultStyle(s style.Style) bool {
	return s == style.Default()
}
