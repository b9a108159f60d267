//go:build linux

package mux

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Closer is a dedicated eventfd used to wake the reactor's event loop for
// a shutdown request (spec §9, "sentinel close event"). Rather than
// reserve an epoll bitmask value that an embedder's own descriptors might
// collide with, the loop arms this single extra fd for ReadReady and
// treats any readiness on it as "stop looping" — the cleaner of the two
// approaches the spec allows.
type Closer struct {
	fd int
}

// NewCloser creates the eventfd backing a Closer, close-on-exec and
// non-blocking so a spurious extra read never stalls the loop.
func NewCloser() (*Closer, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("mux: eventfd: %w", err)
	}
	return &Closer{fd: fd}, nil
}

// Fd is the descriptor to Add to a Multiplexer with ReadReady|EdgeTriggered.
func (c *Closer) Fd() int {
	return c.fd
}

// Signal wakes one Wait call blocked on the multiplexer. Safe to call more
// than once; io_uring and epoll alike will just see the counter go from 0
// to some positive value.
func (c *Closer) Signal() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(c.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("mux: eventfd write: %w", err)
	}
	return nil
}

// Drain consumes the eventfd's counter after a wakeup so the fd goes back
// to not-ready; callers should do this once per observed ReadReady event,
// per spec §4.4's "drain until EAGAIN" discipline.
func (c *Closer) Drain() error {
	var buf [8]byte
	for {
		_, err := unix.Read(c.fd, buf[:])
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return fmt.Errorf("mux: eventfd read: %w", err)
		}
	}
}

// Close releases the eventfd.
func (c *Closer) Close() error {
	return unix.Close(c.fd)
}
