// Package mux defines the edge-triggered readiness multiplexer the
// reactor depends on (spec §6 "Readiness multiplexer") and its default
// epoll-backed implementation. A second, optional implementation backed
// by io_uring poll operations is available behind the "giouring" build
// tag, mirroring the way the teacher project gated its real io_uring
// backend behind "-tags giouring".
package mux

import "errors"

// Mask bits, matching the vocabulary spec §6 requires of any
// implementation: READ_READY, WRITE_READY, HANGUP, ERROR, EDGE_TRIGGERED,
// and at least one application-reserved bit usable as a sentinel close
// event. The epoll backend maps the first five directly onto the
// matching EPOLL* constants. SentinelClose is defined for interface
// completeness, but the reactor's own close(conn) is only ever called
// from the I/O thread (spec §4.1), so it never needs to wake the loop
// from outside; the one cross-thread wakeup the reactor does need is
// stop(), which it delivers over a dedicated eventfd (see Closer) per
// the cleaner alternative spec §9 allows.
const (
	ReadReady     uint32 = 1 << iota // socket has bytes to read, or a listener has a pending accept
	WriteReady                       // socket can accept more bytes without blocking
	Hangup                           // peer closed or half-closed the connection
	Error                            // socket entered an error state
	EdgeTriggered                    // arm this descriptor in edge-triggered mode
	SentinelClose                    // reserved for backends that multiplex close requests through readiness
)

// ErrWouldBlock describes a Wait call that returned before the timeout with
// no ready descriptors. No backend in this package returns it: they
// report that case as (0, nil), and the reactor treats any non-nil error
// from Wait as fatal.
var ErrWouldBlock = errors.New("mux: wait returned with no ready descriptors")

// ErrUnsupportedPlatform is returned by NewEpoll and NewIOURing when the
// platform or build tags leave them without a working backend.
var ErrUnsupportedPlatform = errors.New("mux: no multiplexer backend for this platform")

// Event is one readiness record returned by Wait.
type Event struct {
	Fd     int
	Events uint32
}

// Multiplexer is the narrow contract the reactor drives: create, arm,
// rearm, disarm, and wait. All descriptors are expected to be armed in
// edge-triggered mode; it is the caller's responsibility to drain a
// descriptor fully after each notification (spec §4.4).
type Multiplexer interface {
	// Add begins monitoring fd for the bits in mask.
	Add(fd int, mask uint32) error

	// Modify replaces the monitored bit set for fd.
	Modify(fd int, mask uint32) error

	// Remove stops monitoring fd. Removing an fd that was never added,
	// or was already removed, is a no-op.
	Remove(fd int) error

	// Wait blocks up to timeoutMs (or indefinitely if negative) and
	// fills events with ready records, returning the count. A timeout
	// with no activity returns (0, nil).
	Wait(events []Event, timeoutMs int) (int, error)

	// Close releases the multiplexer's own descriptor.
	Close() error
}
