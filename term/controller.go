// Package term implements the terminal controller (spec.md §4.C), the
// differential renderer (§4.D), and the event multiplexer (§4.E) that
// together let an application take exclusive control of a Unix
// terminal, draw styled frames to it, and consume keyboard input and
// resize notifications through a single fused wait.
package term

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"

	"tuicore/frame"
	iou "tuicore/internal/ioutil"
)

// controllerActive enforces "at most one live Controller per process":
// the signal handler and saved termios are process-global, so a second
// construction must fail rather than race the first.
var controllerActive atomic.Bool

// Controller owns the TTY file descriptor, the saved original termios,
// and the SIGWINCH self-pipe. It is single-owner: the same Controller
// value must not be driven from more than one goroutine concurrently.
type Controller struct {
	in, out     *os.File
	inFd, outFd int
	ownsFiles   bool

	origTermios *unix.Termios
	pipe        *iou.SelfPipe
	sigCh       chan os.Signal
	sigDone     chan struct{}

	parser keyParser

	sizeMu     sync.Mutex
	cachedSize frame.Size
	retained   *frame.Frame

	closeOnce sync.Once
	logWriter io.Writer
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// WithLogWriter sets the writer that best-effort shutdown-failure
// diagnostics (spec.md §7) are reported to. The default is io.Discard.
func WithLogWriter(w io.Writer) Option {
	return func(c *Controller) { c.logWriter = w }
}

// New opens /dev/tty (or falls back to stdin/stdout if both are
// terminals), saves the current termios, installs the SIGWINCH self-pipe,
// switches to raw + alternate-screen mode, and queries the initial
// size. Construction fails with ErrAlreadyActive if another Controller
// is already live in this process, and leaves no partial state behind
// on any other failure.
func New(opts ...Option) (*Controller, error) {
	if !controllerActive.CompareAndSwap(false, true) {
		return nil, ErrAlreadyActive
	}
	c, err := newController(opts...)
	if err != nil {
		controllerActive.Store(false)
		return nil, err
	}
	return c, nil
}

func newController(opts ...Option) (c *Controller, err error) {
	c = &Controller{logWriter: io.Discard}
	for _, opt := range opts {
		opt(c)
	}

	c.in, c.out, c.ownsFiles, err = openTTY()
	if err != nil {
		return nil, err
	}
	c.inFd, c.outFd = int(c.in.Fd()), int(c.out.Fd())

	defer func() {
		if err != nil {
			c.closeFiles()
		}
	}()

	origTermios, err := unix.IoctlGetTermios(c.inFd, unix.TCGETS)
	if err != nil {
		return nil, ioError("tcgetattr", err)
	}
	c.origTermios = origTermios

	c.pipe, err = iou.NewSelfPipe()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			c.pipe.Close()
		}
	}()

	c.sigCh = make(chan os.Signal, 1)
	c.sigDone = make(chan struct{})
	signal.Notify(c.sigCh, syscall.SIGWINCH)
	go c.signalLoop()

	if werr := writeAll(c.outFd, []byte("\x1b[?1049h\x1b[?25l\x1b[?7l")); werr != nil {
		err = werr
		c.teardownSignal()
		return nil, err
	}

	raw := *origTermios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0
	if serr := unix.IoctlSetTermios(c.inFd, unix.TCSETS, &raw); serr != nil {
		err = ioError("tcsetattr", serr)
		writeAll(c.outFd, []byte("\x1b[?25h\x1b[?7h\x1b[?1049l"))
		c.teardownSignal()
		return nil, err
	}

	if serr := iou.SetNonblocking(c.inFd); serr != nil {
		err = serr
		unix.IoctlSetTermios(c.inFd, unix.TCSETS, origTermios)
		writeAll(c.outFd, []byte("\x1b[?25h\x1b[?7h\x1b[?1049l"))
		c.teardownSignal()
		return nil, err
	}

	size, serr := querySize(c.outFd)
	if serr != nil {
		size = frame.Size{Rows: 24, Cols: 80}
	}
	c.cachedSize = size
	c.retained = frame.New(size)

	return c, nil
}

// openTTY implements spec.md §4.C step 1: open /dev/tty read/write, or
// fall back to the standard streams if they are themselves a terminal.
func openTTY() (in, out *os.File, owns bool, err error) {
	if f, ferr := os.OpenFile("/dev/tty", os.O_RDWR, 0); ferr == nil {
		return f, f, true, nil
	}
	if xterm.IsTerminal(int(os.Stdin.Fd())) && xterm.IsTerminal(int(os.Stdout.Fd())) {
		return os.Stdin, os.Stdout, false, nil
	}
	return nil, nil, false, ErrNotATty
}

func (c *Controller) closeFiles() {
	if c.ownsFiles && c.in != nil {
		c.in.Close()
	}
}

func (c *Controller) teardownSignal() {
	signal.Stop(c.sigCh)
	close(c.sigDone)
	c.pipe.Close()
}

func (c *Controller) signalLoop() {
	for {
		select {
		case <-c.sigDone:
			return
		case <-c.sigCh:
			c.pipe.Notify()
		}
	}
}

func querySize(fd int) (frame.Size, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return frame.Size{}, err
	}
	return frame.Size{Rows: ws.Row, Cols: ws.Col}, nil
}

// writeAll issues a single logical write of buf to fd, retrying on
// partial writes and EINTR, per spec.md §4.D's batching rule.
func writeAll(fd int, buf []byte) error {
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return ioError("write", err)
		}
		buf = buf[n:]
	}
	return nil
}

// Close restores the terminal to its original state in the reverse
// order of New: show the cursor, re-enable wrap, leave the alternate
// screen, restore termios, restore the signal disposition, and close
// the self-pipe. It is safe to call more than once; only the first
// call has effect. Restoration is best-effort: if restoring termios
// fails, the failure is reported through the configured log writer
// (see WithLogWriter) rather than panicking.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.shutdown()
		controllerActive.Store(false)
	})
	return err
}

func (c *Controller) shutdown() error {
	writeErr := writeAll(c.outFd, []byte("\x1b[?25h\x1b[?7h\x1b[?1049l"))

	var restoreErr error
	if c.origTermios != nil {
		if serr := unix.IoctlSetTermios(c.inFd, unix.TCSETS, c.origTermios); serr != nil {
			restoreErr = ioError("tcsetattr(restore)", serr)
		}
	}

	signal.Stop(c.sigCh)
	close(c.sigDone)
	c.pipe.Close()
	c.closeFiles()

	if restoreErr != nil {
		fmt.Fprintln(c.logWriter, restoreErr)
		return restoreErr
	}
	return writeErr
}

// Size returns the controller's cached terminal size, refreshed from
// TIOCGWINSZ on every SIGWINCH before the corresponding Resize event is
// delivered, so callers always observe a size consistent with the most
// recently observed event.
func (c *Controller) Size() frame.Size {
	c.sizeMu.Lock()
	defer c.sizeMu.Unlock()
	return c.cachedSize
}

// InputFD returns the file descriptor used for keyboard input, for
// callers integrating with an external poll/select-based reactor.
func (c *Controller) InputFD() int { return c.inFd }

// SignalFD returns the self-pipe's read end, for callers integrating
// with an external reactor that wants to multiplex resize notifications
// itself instead of calling PollEvent.
func (c *Controller) SignalFD() int { return c.pipe.ReadFd }

// Draw diffs frame f against the last successfully drawn frame and
// writes the minimal control-sequence byte stream to the TTY in a
// single batched write, per spec.md §4.D. If f's size doesn't match
// the retained frame's, a full clear is emitted first and the retained
// frame is reset to blank at f's size. On write failure the retained
// frame is left unchanged so a subsequent Draw reconverges from the
// last known-good state.
func (c *Controller) Draw(f *frame.Frame) error {
	var out []byte
	retained := c.retained
	if retained == nil || retained.Size() != f.Size() {
		out = append(out, clearScreen...)
		retained = frame.New(f.Size())
	}
	out = append(out, renderDiff(retained, f)...)

	if err := writeAll(c.outFd, out); err != nil {
		return err
	}
	c.retained = f.Clone()
	return nil
}

// ReadInput is a convenience wrapper over PollEvent for callers that
// only want the next keystroke: it loops, discarding Resize and FdReady
// events, until an Input event arrives. Per spec.md §9's resolution of
// the two documented poll_event signatures, PollEvent is the primary,
// richer form; ReadInput and WaitForResize are the simpler wrappers.
func (c *Controller) ReadInput() (KeyInput, error) {
	for {
		ev, ok, err := c.PollEvent(nil, nil, nil)
		if err != nil {
			return KeyInput{}, err
		}
		if !ok {
			continue
		}
		if ev.Kind == EventInput {
			return ev.Input, nil
		}
	}
}

// ReadInputTimeout is ReadInput bounded by timeout; it returns
// ok == false if no key arrives in time.
func (c *Controller) ReadInputTimeout(timeout time.Duration) (key KeyInput, ok bool, err error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		ev, got, perr := c.PollEvent(nil, nil, &remaining)
		if perr != nil {
			return KeyInput{}, false, perr
		}
		if !got {
			return KeyInput{}, false, nil
		}
		if ev.Kind == EventInput {
			return ev.Input, true, nil
		}
		if !time.Now().Before(deadline) {
			return KeyInput{}, false, nil
		}
	}
}

// TryReadInput attempts to read and parse the next keystroke without
// blocking, mirroring the non-blocking read mode raw mode itself puts
// the input fd into (VMIN=0, VTIME=0): a read that finds nothing ready
// returns immediately instead of waiting. It returns ErrWouldBlock if
// no complete key is available right now, either because the input fd
// itself has nothing pending or because the bytes buffered so far
// don't yet resolve to a complete key.
func (c *Controller) TryReadInput() (KeyInput, error) {
	if ev, ok := c.drainParsed(); ok {
		return ev.Input, nil
	}

	var buf [256]byte
	n, ok, err := iou.TryNonblocking(func() (int, error) {
		return unix.Read(c.inFd, buf[:])
	})
	if err != nil {
		return KeyInput{}, ioError("read", err)
	}
	if !ok || n == 0 {
		return KeyInput{}, ErrWouldBlock
	}

	c.parser.Feed(buf[:n])
	ev, ok, _ := c.parser.Next(time.Now())
	if !ok {
		return KeyInput{}, ErrWouldBlock
	}
	return ev, nil
}

// WaitForResize is a convenience wrapper over PollEvent that loops,
// discarding Input and FdReady events, until a Resize event arrives.
func (c *Controller) WaitForResize() (frame.Size, error) {
	for {
		ev, ok, err := c.PollEvent(nil, nil, nil)
		if err != nil {
			return frame.Size{}, err
		}
		if !ok {
			continue
		}
		if ev.Kind == EventResize {
			return ev.Resize, nil
		}
	}
}
