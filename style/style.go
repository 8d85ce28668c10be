package style

import "strings"

// Style is an immutable bundle of an optional foreground color, an
// optional background color, and independent boolean attributes.
// Setters never mutate the receiver; they return a new Style.
type Style struct {
	fg, bg   Color
	hasFg    bool
	hasBg    bool
	bold     bool
	dim      bool
	italic   bool
	underline bool
	blink    bool
	reverse  bool
	strike   bool
	reset    bool
}

// RESET is the distinguished style that disables every attribute and
// restores the terminal's default colors. Its rendering is always
// "\x1b[0m", even though it carries no colors or attributes of its own.
var RESET = Style{reset: true}

// Default returns the zero-value style: no colors set, no attributes,
// not RESET. Its rendering is the empty string.
func Default() Style { return Style{} }

// Foreground returns a copy of s with the foreground color set.
func (s Style) Foreground(c Color) Style {
	s.reset = false
	s.fg, s.hasFg = c, true
	return s
}

// Background returns a copy of s with the background color set.
func (s Style) Background(c Color) Style {
	s.reset = false
	s.bg, s.hasBg = c, true
	return s
}

// Bold returns a copy of s with the bold attribute set.
func (s Style) Bold() Style { s.reset = false; s.bold = true; return s }

// Dim returns a copy of s with the dim attribute set.
func (s Style) Dim() Style { s.reset = false; s.dim = true; return s }

// Italic returns a copy of s with the italic attribute set.
func (s Style) Italic() Style { s.reset = false; s.italic = true; return s }

// Underline returns a copy of s with the underline attribute set.
func (s Style) Underline() Style { s.reset = false; s.underline = true; return s }

// Blink returns a copy of s with the blink attribute set.
func (s Style) Blink() Style { s.reset = false; s.blink = true; return s }

// Reverse returns a copy of s with the reverse-video attribute set.
func (s Style) Reverse() Style { s.reset = false; s.reverse = true; return s }

// Strike returns a copy of s with the strikethrough attribute set.
func (s Style) Strike() Style { s.reset = false; s.strike = true; return s }

// HasForeground reports whether s carries an explicit foreground color.
func (s Style) HasForeground() bool { return s.hasFg }

// Foreground color of s, valid only when HasForeground reports true.
func (s Style) ForegroundColor() Color { return s.fg }

// HasBackground reports whether s carries an explicit background color.
func (s Style) HasBackground() bool { return s.hasBg }

// BackgroundColor of s, valid only when HasBackground reports true.
func (s Style) BackgroundColor() Color { return s.bg }

// IsBold reports the bold attribute.
func (s Style) IsBold() bool { return s.bold }

// IsDim reports the dim attribute.
func (s Style) IsDim() bool { return s.dim }

// IsItalic reports the italic attribute.
func (s Style) IsItalic() bool { return s.italic }

// IsUnderline reports the underline attribute.
func (s Style) IsUnderline() bool { return s.underline }

// IsBlink reports the blink attribute.
func (s Style) IsBlink() bool { return s.blink }

// IsReverse reports the reverse-video attribute.
func (s Style) IsReverse() bool { return s.reverse }

// IsStrike reports the strikethrough attribute.
func (s Style) IsStrike() bool { return s.strike }

// IsReset reports whether s is the distinguished RESET value.
func (s Style) IsReset() bool { return s.reset }

// Merge overlays the attributes and colors that other sets onto s,
// leaving everything else from s untouched. Merging into or with RESET
// produces RESET's plain attribute set starting point (RESET itself
// carries none), matching the "RESET clears to default" writer rule in
// the frame package.
func (s Style) Merge(other Style) Style {
	if other.reset {
		return RESET
	}
	out := s
	out.reset = false
	if other.hasFg {
		out.fg, out.hasFg = other.fg, true
	}
	if other.hasBg {
		out.bg, out.hasBg = other.bg, true
	}
	out.bold = out.bold || other.bold
	out.dim = out.dim || other.dim
	out.italic = out.italic || other.italic
	out.underline = out.underline || other.underline
	out.blink = out.blink || other.blink
	out.reverse = out.reverse || other.reverse
	out.strike = out.strike || other.strike
	return out
}

// SGR renders s as a complete "CSI ... m" Select Graphic Rendition
// sequence. The rendering always sets exactly the attributes s carries;
// it is never a diff against any previously emitted style. A style with
// no attributes, no colors, and not RESET renders as the empty string.
func (s Style) SGR() string {
	if s.reset {
		return "\x1b[0m"
	}
	var params []string
	if s.bold {
		params = append(params, "1")
	}
	if s.dim {
		params = append(params, "2")
	}
	if s.italic {
		params = append(params, "3")
	}
	if s.underline {
		params = append(params, "4")
	}
	if s.blink {
		params = append(params, "5")
	}
	if s.reverse {
		params = append(params, "7")
	}
	if s.strike {
		params = append(params, "9")
	}
	if s.hasFg {
		params = s.fg.sgrParams(params, 0)
	}
	if s.hasBg {
		params = s.bg.sgrParams(params, 10)
	}
	if len(params) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(params, ";") + "m"
}

// Equal reports whether s and other render identically and carry the
// same colors/attributes. Two Style values produced by different
// sequences of setters compare equal when their effective state matches.
func (s Style) Equal(other Style) bool {
	return s == other
}
