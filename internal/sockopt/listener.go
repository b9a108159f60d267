// Package sockopt builds listening sockets through the same staged,
// logged construction the teacher project used for device setup
// (internal/ctrl/control.go's AddDevice): allocate the resource, apply
// each option in sequence, log what was negotiated, hand back a ready
// descriptor or a wrapped error naming the step that failed.
package sockopt

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/logging"
	"github.com/behrlich/go-reactor/internal/sockaddr"
)

// Options controls how Listen constructs the socket.
type Options struct {
	// ReuseAddr sets SO_REUSEADDR before bind, letting a restarted
	// process rebind a port still draining TIME_WAIT connections.
	ReuseAddr bool

	// Backlog is passed to listen(2). Zero means "use the kernel's
	// configured SOMAXCONN".
	Backlog int

	// Logger receives staged-construction diagnostics. Nil uses the
	// package-wide default logger (internal/logging.Default()), mirroring
	// the teacher's nil-checked config.Logger convention.
	Logger interfaces.Logger
}

// DefaultOptions mirrors the reactor's DefaultListenerConfig knobs.
func DefaultOptions() Options {
	return Options{ReuseAddr: true, Backlog: 0}
}

// Listen builds a non-blocking, close-on-exec, edge-trigger-ready
// listening socket bound to family/address/port and returns its
// descriptor. The caller owns the returned fd and must close it exactly
// once (spec §4.8 descriptor-ownership discipline).
func Listen(family sockaddr.Family, address string, port int, opts Options) (fd int, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	domain := sockaddr.Domain(family)
	fd, err = unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("sockopt: socket: %w", err)
	}
	logger.Debugf("sockopt: socket created fd=%d", fd)
	// From here on, any failure must close fd before returning.
	defer func() {
		if err != nil {
			unix.Close(fd)
		}
	}()

	if opts.ReuseAddr {
		if sockErr := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
			return -1, fmt.Errorf("sockopt: setsockopt(SO_REUSEADDR): %w", sockErr)
		}
	}

	sa, saErr := sockaddr.ToKernel(family, address, port)
	if saErr != nil {
		return -1, fmt.Errorf("sockopt: invalid endpoint %s:%d: %w", address, port, saErr)
	}

	if bindErr := unix.Bind(fd, sa); bindErr != nil {
		return -1, fmt.Errorf("sockopt: bind(%s:%d): %w", address, port, bindErr)
	}
	logger.Debugf("sockopt: bound fd=%d to %s:%d", fd, address, port)

	backlog := opts.Backlog
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if listenErr := unix.Listen(fd, backlog); listenErr != nil {
		return -1, fmt.Errorf("sockopt: listen(backlog=%d): %w", backlog, listenErr)
	}

	logger.Printf("sockopt: listener ready address=%s port=%d backlog=%d", address, port, backlog)

	return fd, nil
}

// Accept pulls one pending connection off a listening socket, returning
// a non-blocking, close-on-exec client descriptor and its peer endpoint.
// unix.EAGAIN is returned unwrapped so callers can distinguish "no more
// pending connections" (spec §4.3's accept-loop termination) from a real
// failure.
func Accept(listenerFd int) (clientFd int, peerFamily sockaddr.Family, peerAddr string, peerPort int, err error) {
	nfd, sa, acceptErr := unix.Accept4(listenerFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if acceptErr != nil {
		if acceptErr == unix.EAGAIN {
			return -1, 0, "", 0, unix.EAGAIN
		}
		return -1, 0, "", 0, fmt.Errorf("sockopt: accept4: %w", acceptErr)
	}

	family, addr, port, decodeErr := sockaddr.FromKernel(sa)
	if decodeErr != nil {
		unix.Close(nfd)
		return -1, 0, "", 0, fmt.Errorf("sockopt: decode peer address: %w", decodeErr)
	}
	return nfd, family, addr, port, nil
}
