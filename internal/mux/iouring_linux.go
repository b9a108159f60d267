//go:build linux && giouring

// Package mux, under -tags giouring, gains an alternate Multiplexer
// backend built on io_uring poll operations instead of epoll. This
// mirrors the teacher project's own "-tags giouring" gate
// (internal/uring/iouring.go / iouring_stub.go): a real backend behind a
// build tag, a stub without it, neither exercised by the default test
// suite. Unlike the teacher's copy, this one actually imports the
// dependency its go.mod declares — in the teacher repo
// github.com/pawelgaczynski/giouring was required but never imported
// anywhere in the source tree; see DESIGN.md.
package mux

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/pawelgaczynski/giouring"

	"github.com/behrlich/go-reactor/internal/interfaces"
)

// pollEntry tracks the descriptor and mask behind one outstanding
// IORING_OP_POLL_ADD submission, keyed by the user_data tag we hand the
// ring so completions can be matched back to a descriptor.
type pollEntry struct {
	fd   int
	mask uint32
}

// iouringMux implements Multiplexer on top of a single io_uring instance
// using one POLL_ADD submission per monitored descriptor. Edge-triggered
// behavior (spec §6 EDGE_TRIGGERED) is emulated by re-submitting
// POLL_ADD for a descriptor only when the caller re-arms it via Modify,
// never automatically after a completion — matching the "drain until
// EAGAIN, then rearm" discipline the reactor already follows for epoll.
type iouringMux struct {
	mu      sync.Mutex
	ring    *giouring.Ring
	entries map[uint64]pollEntry
	nextTag uint64
	logger  interfaces.Logger
}

// NewIOURing creates an io_uring-backed multiplexer. It is an optional
// alternative to NewEpoll, selected by setting Config.Multiplexer to its
// result; the reactor never picks it automatically. logger may be nil.
func NewIOURing(entries uint32, logger interfaces.Logger) (Multiplexer, error) {
	ring, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, fmt.Errorf("mux: io_uring_setup: %w", err)
	}
	if logger != nil {
		logger.Debugf("mux: io_uring multiplexer created, entries=%d", entries)
	}
	return &iouringMux{ring: ring, entries: make(map[uint64]pollEntry), logger: logger}, nil
}

func toPollMask(mask uint32) uint32 {
	var m uint32
	if mask&ReadReady != 0 {
		m |= 0x0001 // POLLIN
	}
	if mask&WriteReady != 0 {
		m |= 0x0004 // POLLOUT
	}
	if mask&Hangup != 0 {
		m |= 0x2000 // POLLRDHUP
	}
	if mask&Error != 0 {
		m |= 0x0008 // POLLERR
	}
	return m
}

func fromPollMask(m uint32) uint32 {
	var mask uint32
	if m&0x0001 != 0 {
		mask |= ReadReady
	}
	if m&0x0004 != 0 {
		mask |= WriteReady
	}
	if m&(0x2000|0x0010) != 0 { // POLLRDHUP | POLLHUP
		mask |= Hangup
	}
	if m&0x0008 != 0 {
		mask |= Error
	}
	return mask
}

func (m *iouringMux) submitPoll(fd int, mask uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sqe := m.ring.GetSQE()
	if sqe == nil {
		if _, err := m.ring.Submit(); err != nil {
			return fmt.Errorf("mux: io_uring submit (sqe drain): %w", err)
		}
		sqe = m.ring.GetSQE()
		if sqe == nil {
			return fmt.Errorf("mux: io_uring submission queue full")
		}
	}

	tag := m.nextTag
	m.nextTag++
	m.entries[tag] = pollEntry{fd: fd, mask: mask}

	sqe.PrepPollAdd(uint64(fd), toPollMask(mask))
	sqe.UserData = tag

	if _, err := m.ring.Submit(); err != nil {
		return fmt.Errorf("mux: io_uring submit: %w", err)
	}
	return nil
}

func (m *iouringMux) Add(fd int, mask uint32) error {
	return m.submitPoll(fd, mask)
}

func (m *iouringMux) Modify(fd int, mask uint32) error {
	// io_uring has no in-place poll-mask update, so a new POLL_ADD is
	// submitted. The stale submission is not cancelled with POLL_REMOVE;
	// its tag is dropped from the entries map, and any completion for it
	// is discarded in Wait via the entries map lookup.
	m.mu.Lock()
	for tag, e := range m.entries {
		if e.fd == fd {
			delete(m.entries, tag)
		}
	}
	m.mu.Unlock()
	return m.submitPoll(fd, mask)
}

func (m *iouringMux) Remove(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tag, e := range m.entries {
		if e.fd == fd {
			delete(m.entries, tag)
		}
	}
	return nil
}

// Wait blocks for the first completion — indefinitely when timeoutMs is
// negative (WaitCQE), or up to timeoutMs (WaitCQETimeout) otherwise — the
// io_uring analogue of epoll_wait's timeout argument. A prior version of
// this method called PeekCQE (non-blocking) for every non-negative
// timeout, which meant it never actually waited: the reactor's event
// loop busy-spun a CPU core instead of blocking between readiness
// notifications. Once the first completion arrives (or the deadline
// passes with none pending), any further already-ready completions are
// drained with non-blocking PeekCQE calls to fill out the batch, mirroring
// epoll_wait returning every ready descriptor in one call.
func (m *iouringMux) Wait(events []Event, timeoutMs int) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	var cqe *giouring.CompletionQueueEvent
	var err error
	if timeoutMs < 0 {
		cqe, err = m.ring.WaitCQE()
	} else {
		cqe, err = m.ring.WaitCQETimeout(time.Duration(timeoutMs) * time.Millisecond)
	}
	if err != nil {
		if errors.Is(err, syscall.ETIME) {
			return 0, nil
		}
		if m.logger != nil {
			m.logger.Printf("mux: io_uring wait failed: %v", err)
		}
		return 0, nil
	}

	count := 0
	m.mu.Lock()
	defer m.mu.Unlock()
	for cqe != nil && count < len(events) {
		entry, ok := m.entries[cqe.UserData]
		if ok {
			events[count] = Event{Fd: entry.fd, Events: fromPollMask(uint32(cqe.Res))}
			count++
		}
		m.ring.CQESeen(cqe)
		cqe, err = m.ring.PeekCQE()
		if err != nil {
			break
		}
	}
	return count, nil
}

func (m *iouringMux) Close() error {
	m.ring.QueueExit()
	return nil
}
