package term

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// escCoalesceWindow is how long the parser waits after a lone ESC byte
// before deciding it really is a bare Escape keypress rather than the
// start of a CSI/SS3/alt-key sequence.
const escCoalesceWindow = 10 * time.Millisecond

// csiTimeout is how long the parser waits for the remaining bytes of a
// CSI or SS3 sequence once it has seen the introducer.
const csiTimeout = 50 * time.Millisecond

// keyParser is a small state machine turning a raw input byte stream
// into KeyInput values. It never blocks: Feed appends bytes as they
// arrive, and Next extracts at most one complete key per call,
// leaving any unconsumed or incomplete bytes buffered for later.
type keyParser struct {
	buf         []byte
	escDeadline time.Time
	csiDeadline time.Time
}

func (p *keyParser) Feed(data []byte) {
	p.buf = append(p.buf, data...)
}

func (p *keyParser) consume(n int) {
	p.buf = p.buf[n:]
}

// stepResult is the outcome of attempting one parsing step.
type stepResult struct {
	ev         KeyInput
	produced   bool
	wait       time.Duration
	progressed bool
}

// Next attempts to parse the next complete key from the buffered bytes.
// now resolves timing-sensitive decisions (bare ESC, truncated CSI/SS3).
// It returns (event, true, 0) when a key was parsed; (zero, false, d)
// when the caller should wake again in at most d to re-resolve a
// pending timing decision (d == 0 meaning "no opinion — wait for more
// input instead").
func (p *keyParser) Next(now time.Time) (KeyInput, bool, time.Duration) {
	for len(p.buf) > 0 {
		r := p.step(now)
		if r.produced {
			return r.ev, true, 0
		}
		if r.wait > 0 {
			return KeyInput{}, false, r.wait
		}
		if !r.progressed {
			return KeyInput{}, false, 0
		}
		// Progressed without producing an event (dropped a malformed
		// byte, abandoned a timed-out sequence) — try again.
	}
	return KeyInput{}, false, 0
}

func (p *keyParser) step(now time.Time) stepResult {
	b0 := p.buf[0]
	switch {
	case b0 == 0x1b:
		return p.stepEsc(now)
	case b0 == 0x7f || b0 == 0x08:
		p.consume(1)
		return stepResult{ev: KeyInput{Code: KeyBackspace}, produced: true, progressed: true}
	case b0 == '\t':
		p.consume(1)
		return stepResult{ev: KeyInput{Code: KeyTab}, produced: true, progressed: true}
	case b0 == '\n' || b0 == '\r':
		p.consume(1)
		return stepResult{ev: KeyInput{Code: KeyEnter}, produced: true, progressed: true}
	case b0 >= 0x01 && b0 <= 0x1a:
		p.consume(1)
		return stepResult{ev: KeyInput{Code: Char(rune(b0 + 0x60)), Ctrl: true}, produced: true, progressed: true}
	default:
		return p.stepUTF8()
	}
}

func (p *keyParser) stepUTF8() stepResult {
	r, size, ok := decodeUTF8(p.buf)
	if !ok {
		if size == 0 {
			return stepResult{progressed: false}
		}
		p.consume(size)
		return stepResult{progressed: true}
	}
	p.consume(size)
	return stepResult{ev: KeyInput{Code: Char(r)}, produced: true, progressed: true}
}

func (p *keyParser) stepEsc(now time.Time) stepResult {
	if len(p.buf) == 1 {
		if p.escDeadline.IsZero() {
			p.escDeadline = now.Add(escCoalesceWindow)
			return stepResult{wait: escCoalesceWindow}
		}
		if now.Before(p.escDeadline) {
			return stepResult{wait: p.escDeadline.Sub(now)}
		}
		p.consume(1)
		p.escDeadline = time.Time{}
		return stepResult{ev: KeyInput{Code: KeyEscape}, produced: true, progressed: true}
	}

	p.escDeadline = time.Time{}
	switch p.buf[1] {
	case '[':
		return p.stepCSI(now)
	case 'O':
		return p.stepSS3(now)
	default:
		r, size, ok := decodeUTF8(p.buf[1:])
		if !ok {
			if size == 0 {
				return stepResult{progressed: false}
			}
			p.consume(1 + size)
			return stepResult{progressed: true}
		}
		p.consume(1 + size)
		return stepResult{ev: KeyInput{Code: Char(r), Alt: true}, produced: true, progressed: true}
	}
}

// stepCSI parses "ESC [ <params> <final>" once the final byte
// (0x40..0x7e) has arrived, or abandons the sequence after csiTimeout.
func (p *keyParser) stepCSI(now time.Time) stepResult {
	for i := 2; i < len(p.buf); i++ {
		b := p.buf[i]
		if b >= 0x40 && b <= 0x7e {
			ev, ok := decodeCSI(string(p.buf[2:i]), b)
			p.consume(i + 1)
			p.csiDeadline = time.Time{}
			if ok {
				return stepResult{ev: ev, produced: true, progressed: true}
			}
			return stepResult{progressed: true}
		}
	}
	return p.awaitMore(now)
}

// stepSS3 parses "ESC O <final>".
func (p *keyParser) stepSS3(now time.Time) stepResult {
	if len(p.buf) < 3 {
		return p.awaitMore(now)
	}
	b := p.buf[2]
	p.consume(3)
	p.csiDeadline = time.Time{}
	switch b {
	case 'A':
		return stepResult{ev: KeyInput{Code: KeyUp}, produced: true, progressed: true}
	case 'B':
		return stepResult{ev: KeyInput{Code: KeyDown}, produced: true, progressed: true}
	case 'C':
		return stepResult{ev: KeyInput{Code: KeyRight}, produced: true, progressed: true}
	case 'D':
		return stepResult{ev: KeyInput{Code: KeyLeft}, produced: true, progressed: true}
	case 'H':
		return stepResult{ev: KeyInput{Code: KeyHome}, produced: true, progressed: true}
	case 'F':
		return stepResult{ev: KeyInput{Code: KeyEnd}, produced: true, progressed: true}
	case 'P':
		return stepResult{ev: KeyInput{Code: Fn(1)}, produced: true, progressed: true}
	case 'Q':
		return stepResult{ev: KeyInput{Code: Fn(2)}, produced: true, progressed: true}
	case 'R':
		return stepResult{ev: KeyInput{Code: Fn(3)}, produced: true, progressed: true}
	case 'S':
		return stepResult{ev: KeyInput{Code: Fn(4)}, produced: true, progressed: true}
	default:
		return stepResult{progressed: true}
	}
}

// awaitMore applies the shared CSI/SS3 truncation timeout: wait up to
// csiTimeout for the rest of the sequence, then abandon just the
// introducer (ESC + second byte) and let the remaining bytes, if any,
// be reprocessed from Ground.
func (p *keyParser) awaitMore(now time.Time) stepResult {
	if p.csiDeadline.IsZero() {
		p.csiDeadline = now.Add(csiTimeout)
		return stepResult{wait: csiTimeout}
	}
	if now.Before(p.csiDeadline) {
		return stepResult{wait: p.csiDeadline.Sub(now)}
	}
	p.consume(2)
	p.csiDeadline = time.Time{}
	return stepResult{progressed: true}
}

// decodeUTF8 decodes the rune at the start of buf. ok is false either
// because the prefix is not (yet) a complete rune — size is 0, caller
// should wait for more bytes — or because it is an invalid encoding —
// size is the one byte to silently discard.
func decodeUTF8(buf []byte) (r rune, size int, ok bool) {
	r, size = utf8.DecodeRune(buf)
	if r != utf8.RuneError {
		return r, size, true
	}
	if !utf8.FullRune(buf) {
		return 0, 0, false
	}
	return 0, 1, false
}

type modifiers struct {
	ctrl, alt, shift bool
}

// decodeModifier parses an xterm modifier parameter: bit 0 shift, bit 1
// alt, bit 2 ctrl, encoded as (bits + 1) in decimal.
func decodeModifier(s string) modifiers {
	if s == "" {
		return modifiers{}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return modifiers{}
	}
	m := n - 1
	return modifiers{
		shift: m&1 != 0,
		alt:   m&2 != 0,
		ctrl:  m&4 != 0,
	}
}

func splitParams(params string) []string {
	if params == "" {
		return nil
	}
	return strings.Split(params, ";")
}

func modAt(parts []string, idx int) modifiers {
	if len(parts) > idx {
		return decodeModifier(parts[idx])
	}
	return modifiers{}
}

func withMod(code KeyCode, m modifiers) KeyInput {
	return KeyInput{Code: code, Ctrl: m.ctrl, Alt: m.alt, Shift: m.shift}
}

// decodeCSI interprets the parameter bytes and final byte of a CSI
// sequence per spec.md's key-parsing table.
func decodeCSI(params string, final byte) (KeyInput, bool) {
	parts := splitParams(params)
	switch final {
	case 'A':
		return withMod(KeyUp, modAt(parts, 1)), true
	case 'B':
		return withMod(KeyDown, modAt(parts, 1)), true
	case 'C':
		return withMod(KeyRight, modAt(parts, 1)), true
	case 'D':
		return withMod(KeyLeft, modAt(parts, 1)), true
	case 'H':
		return withMod(KeyHome, modAt(parts, 1)), true
	case 'F':
		return withMod(KeyEnd, modAt(parts, 1)), true
	case 'Z':
		return KeyInput{Code: KeyBackTab}, true
	case '~':
		key := ""
		if len(parts) >= 1 {
			key = parts[0]
		}
		code, ok := tildeKey(key)
		if !ok {
			return KeyInput{}, false
		}
		return withMod(code, modAt(parts, 1)), true
	default:
		return KeyInput{}, false
	}
}

func tildeKey(key string) (KeyCode, bool) {
	switch key {
	case "1", "7":
		return KeyHome, true
	case "2":
		return KeyInsert, true
	case "3":
		return KeyDelete, true
	case "4", "8":
		return KeyEnd, true
	case "5":
		return KeyPageUp, true
	case "6":
		return KeyPageDown, true
	case "11":
		return Fn(1), true
	case "12":
		return Fn(2), true
	case "13":
		return Fn(3), true
	case "14":
		return Fn(4), true
	case "15":
		return Fn(5), true
	case "17":
		return Fn(6), true
	case "18":
		return Fn(7), true
	case "19":
		return Fn(8), true
	case "20":
		return Fn(9), true
	case "21":
		return Fn(10), true
	case "23":
		return Fn(11), true
	case "24":
		return Fn(12), true
	default:
		return KeyCode{}, false
	}
}
