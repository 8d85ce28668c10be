package term

import (
	"time"

	"golang.org/x/sys/unix"

	iou "tuicore/internal/ioutil"
)

// pollBudget caps how long a single unix.Poll call is allowed to block
// when neither the caller's timeout nor a pending key-parser timing
// decision is sooner, so PollEvent still wakes periodically to notice a
// signal delivered between Poll calls under unusual scheduling.
const pollBudget = 250 * time.Millisecond

// PollEvent waits for the next of: a terminal resize, a parsed
// keystroke, or readiness on one of the caller-supplied readableFds /
// writableFds, per spec.md §4.E. At most one Event is returned per
// call. Within a single wake, events are delivered in the fixed
// priority order resize, then input, then user file descriptors — a
// resize pending alongside fresh input is always reported first, and
// the input that prompted it is picked up on the next call.
//
// timeout bounds the whole wait; nil means wait indefinitely. With a
// nil timeout, a poll iteration with no ready event does not return
// (Event{}, false, nil): PollEvent loops internally rather than return
// early, so an indefinite wait only returns once on true readiness.
func (c *Controller) PollEvent(readableFds, writableFds []int, timeout *time.Duration) (Event, bool, error) {
	deadline, hasDeadline := c.deadlineFrom(timeout)

	for {
		if hasDeadline && !time.Now().Before(deadline) {
			return Event{}, false, nil
		}

		if ev, ok := c.drainParsed(); ok {
			return ev, true, nil
		}

		waitMs := c.computePollTimeoutMs(deadline, hasDeadline)

		pfds := c.buildPollFds(readableFds, writableFds)
		n, err := unix.Poll(pfds, waitMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return Event{}, false, ioError("poll", err)
		}
		if n == 0 {
			// Nothing ready: either the caller's timeout elapsed, or we
			// woke only to re-check a key-parser timing deadline (which
			// drainParsed, above, will now resolve on the next loop).
			if hasDeadline && !time.Now().Before(deadline) {
				return Event{}, false, nil
			}
			continue
		}

		if pfds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			c.pipe.Drain()
			size, err := querySize(c.outFd)
			if err == nil && size != c.Size() {
				c.sizeMu.Lock()
				c.cachedSize = size
				c.sizeMu.Unlock()
				return Event{Kind: EventResize, Resize: size}, true, nil
			}
			// Spurious or no-op resize notification: fall through and
			// check input/user fds from the same wake before looping.
		}

		if pfds[1].Revents&unix.POLLIN != 0 {
			if ev, ok, err := c.readInputBytes(); err != nil {
				return Event{}, false, err
			} else if ok {
				return ev, true, nil
			}
		}

		if ev, ok := c.checkUserFds(pfds[2:], readableFds, writableFds); ok {
			return ev, true, nil
		}
	}
}

func (c *Controller) deadlineFrom(timeout *time.Duration) (time.Time, bool) {
	if timeout == nil {
		return time.Time{}, false
	}
	return time.Now().Add(*timeout), true
}

// drainParsed returns a buffered key the parser can already resolve
// without further input, including one whose bare-ESC or truncated-CSI
// timing deadline has already passed.
func (c *Controller) drainParsed() (Event, bool) {
	ev, ok, _ := c.parser.Next(time.Now())
	if !ok {
		return Event{}, false
	}
	return Event{Kind: EventInput, Input: ev}, true
}

// computePollTimeoutMs folds the caller's remaining deadline and the
// key parser's pending timing hint into a single poll(2) timeout,
// taking whichever is sooner, capped by pollBudget as a liveness
// backstop.
func (c *Controller) computePollTimeoutMs(deadline time.Time, hasDeadline bool) int {
	wait := pollBudget

	if _, _, hint := c.parser.Next(time.Now()); hint > 0 && hint < wait {
		wait = hint
	}
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
	}
	if wait < 0 {
		wait = 0
	}
	return int(wait.Milliseconds())
}

func (c *Controller) buildPollFds(readableFds, writableFds []int) []unix.PollFd {
	pfds := make([]unix.PollFd, 2, 2+len(readableFds)+len(writableFds))
	pfds[0] = unix.PollFd{Fd: int32(c.pipe.ReadFd), Events: unix.POLLIN}
	pfds[1] = unix.PollFd{Fd: int32(c.inFd), Events: unix.POLLIN}
	for _, fd := range readableFds {
		pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	for _, fd := range writableFds {
		pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
	}
	return pfds
}

func (c *Controller) readInputBytes() (Event, bool, error) {
	var buf [256]byte
	for {
		n, ok, err := iou.TryNonblocking(func() (int, error) {
			return unix.Read(c.inFd, buf[:])
		})
		if err != nil {
			return Event{}, false, ioError("read", err)
		}
		if !ok || n == 0 {
			break
		}
		c.parser.Feed(buf[:n])
		if n < len(buf) {
			break
		}
	}
	ev, ok, _ := c.parser.Next(time.Now())
	if !ok {
		return Event{}, false, nil
	}
	return Event{Kind: EventInput, Input: ev}, true, nil
}

func (c *Controller) checkUserFds(pfds []unix.PollFd, readableFds, writableFds []int) (Event, bool) {
	for _, pfd := range pfds {
		if pfd.Revents == 0 {
			continue
		}
		readable := pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0
		writable := pfd.Revents&unix.POLLOUT != 0
		if !readable && !writable {
			continue
		}
		return Event{Kind: EventFdReady, Fd: int(pfd.Fd), Readable: readable, Writable: writable}, true
	}
	return Event{}, false
}
