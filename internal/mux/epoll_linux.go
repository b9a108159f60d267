//go:build linux

package mux

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/interfaces"
)

// epollMux is the default Multiplexer backend: a thin wrapper over
// epoll_create1/epoll_ctl/epoll_wait, created close-on-exec per spec §6.
type epollMux struct {
	epfd   int
	raw    []unix.EpollEvent // scratch buffer, reused and grown across Wait calls
	logger interfaces.Logger
}

// NewEpoll creates a new epoll-backed multiplexer. The returned fd is
// close-on-exec; creation failure maps to the reactor's InitFailed error
// at the call site. logger may be nil.
func NewEpoll(logger interfaces.Logger) (Multiplexer, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("mux: epoll_create1: %w", err)
	}
	if logger != nil {
		logger.Debugf("mux: epoll multiplexer created, fd=%d", fd)
	}
	return &epollMux{epfd: fd, logger: logger}, nil
}

func toEpollEvents(mask uint32) uint32 {
	var ev uint32
	if mask&ReadReady != 0 {
		ev |= unix.EPOLLIN
	}
	if mask&WriteReady != 0 {
		ev |= unix.EPOLLOUT
	}
	if mask&Hangup != 0 {
		ev |= unix.EPOLLHUP | unix.EPOLLRDHUP
	}
	if mask&Error != 0 {
		ev |= unix.EPOLLERR
	}
	if mask&EdgeTriggered != 0 {
		ev |= unix.EPOLLET
	}
	return ev
}

func fromEpollEvents(ev uint32) uint32 {
	var mask uint32
	if ev&unix.EPOLLIN != 0 {
		mask |= ReadReady
	}
	if ev&unix.EPOLLOUT != 0 {
		mask |= WriteReady
	}
	if ev&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		mask |= Hangup
	}
	if ev&unix.EPOLLERR != 0 {
		mask |= Error
	}
	return mask
}

func (m *epollMux) Add(fd int, mask uint32) error {
	event := unix.EpollEvent{Fd: int32(fd), Events: toEpollEvents(mask)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("mux: epoll_ctl(ADD, %d): %w", fd, err)
	}
	return nil
}

func (m *epollMux) Modify(fd int, mask uint32) error {
	event := unix.EpollEvent{Fd: int32(fd), Events: toEpollEvents(mask)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_MOD, fd, &event); err != nil {
		return fmt.Errorf("mux: epoll_ctl(MOD, %d): %w", fd, err)
	}
	return nil
}

func (m *epollMux) Remove(fd int) error {
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.ENOENT && err != unix.EBADF {
		return fmt.Errorf("mux: epoll_ctl(DEL, %d): %w", fd, err)
	}
	return nil
}

func (m *epollMux) Wait(events []Event, timeoutMs int) (int, error) {
	if cap(m.raw) < len(events) {
		m.raw = make([]unix.EpollEvent, len(events))
	}
	raw := m.raw[:len(events)]
	n, err := unix.EpollWait(m.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		if m.logger != nil {
			m.logger.Printf("mux: epoll_wait failed: %v", err)
		}
		return 0, fmt.Errorf("mux: epoll_wait: %w", err)
	}
	for i := 0; i < n; i++ {
		events[i] = Event{Fd: int(raw[i].Fd), Events: fromEpollEvents(raw[i].Events)}
	}
	return n, nil
}

func (m *epollMux) Close() error {
	return unix.Close(m.epfd)
}
