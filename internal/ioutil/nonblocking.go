// Package ioutil holds the small self-pipe / non-blocking-fd helpers
// shared by the term package's controller and event multiplexer.
package ioutil

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// SetNonblocking flips O_NONBLOCK on fd.
func SetNonblocking(fd int) error {
	return unix.SetNonblock(fd, true)
}

// TryNonblocking runs op and maps a "would block" error (EAGAIN or
// EWOULDBLOCK) from an underlying syscall to an absent result with a nil
// error; every other error is returned untouched.
func TryNonblocking[T any](op func() (T, error)) (result T, ok bool, err error) {
	v, opErr := op()
	if opErr == nil {
		return v, true, nil
	}
	if errors.Is(opErr, unix.EAGAIN) || errors.Is(opErr, unix.EWOULDBLOCK) {
		return result, false, nil
	}
	return result, false, opErr
}

// SelfPipe is a pipe whose read end is polled by the event multiplexer
// and whose write end is fed by the SIGWINCH-notification goroutine,
// bridging the asynchronous signal into the synchronous poll loop.
type SelfPipe struct {
	r, w   *os.File
	ReadFd int
}

// NewSelfPipe opens a pipe and puts both ends in non-blocking mode, so
// the signal-notification goroutine can always complete its single
// write without blocking, and poll(2) never blocks draining it.
func NewSelfPipe() (*SelfPipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	if err := SetNonblocking(int(r.Fd())); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	if err := SetNonblocking(int(w.Fd())); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	return &SelfPipe{r: r, w: w, ReadFd: int(r.Fd())}, nil
}

// Notify writes a single byte to the pipe. A write that would block
// because the pipe buffer is full is silently dropped; undrained bytes
// accumulate and a single Drain consumes them all, so signals coalesce.
func (p *SelfPipe) Notify() {
	var b [1]byte
	_, _, _ = TryNonblocking(func() (int, error) {
		return unix.Write(int(p.w.Fd()), b[:])
	})
}

// Drain reads and discards every buffered byte, reporting whether at
// least one byte was read.
func (p *SelfPipe) Drain() bool {
	var buf [64]byte
	drained := false
	for {
		n, _, err := TryNonblocking(func() (int, error) {
			return unix.Read(p.ReadFd, buf[:])
		})
		if err != nil || n <= 0 {
			return drained
		}
		drained = true
	}
}

// Close releases both ends of the pipe.
func (p *SelfPipe) Close() error {
	err1 := p.r.Close()
	err2 := p.w.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
