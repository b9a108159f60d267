package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/sockaddr"
	"github.com/behrlich/go-reactor/internal/sockopt"
)

// ListenerConfig controls how NewListener builds the listening socket.
type ListenerConfig struct {
	ReuseAddr bool
	Backlog   int

	// Logger receives staged-construction diagnostics from the underlying
	// internal/sockopt.Listen call. Nil uses the package-wide default
	// logger.
	Logger interfaces.Logger
}

// DefaultListenerConfig mirrors spec §4.7's contract: SO_REUSEADDR
// enabled, backlog defaulted to the OS maximum.
func DefaultListenerConfig() ListenerConfig {
	opts := sockopt.DefaultOptions()
	return ListenerConfig{ReuseAddr: opts.ReuseAddr, Backlog: opts.Backlog}
}

// Listener is a bound, listening, non-blocking, close-on-exec TCP
// endpoint (spec §3, §4.7). The reactor and the embedder both hold a
// reference to it. Once registered, the listener is closed by the
// reactor's own Close; a listener that is never registered must be
// closed by its caller.
type Listener struct {
	descriptor Descriptor
	endpoint   Endpoint
}

// NewListener builds a listening socket bound to (address, port) in the
// given family, per spec §4.7: create, SO_REUSEADDR, non-blocking,
// close-on-exec, bind, listen. Any step's failure produces a
// ListenerSetupFailed error. Port 0 asks the kernel for an ephemeral
// port; Endpoint reports the port actually bound. A port outside
// [0, 65535] fails with InvalidPort.
func NewListener(family Family, address string, port int, cfg ListenerConfig) (*Listener, error) {
	if port < 0 || port > 65535 {
		return nil, NewError("NewListener", KindInvalidPort, "port must be in [0, 65535]")
	}

	fam := sockaddr.FamilyIPv4
	if family == FamilyIPv6 {
		fam = sockaddr.FamilyIPv6
	}

	fd, err := sockopt.Listen(fam, address, port, sockopt.Options{ReuseAddr: cfg.ReuseAddr, Backlog: cfg.Backlog, Logger: cfg.Logger})
	if err != nil {
		return nil, &Error{Op: "NewListener", Fd: -1, Kind: KindListenerSetupFailed, Msg: err.Error(), Inner: err}
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, &Error{Op: "NewListener", Fd: -1, Kind: KindListenerSetupFailed, Msg: err.Error(), Inner: err}
	}
	_, _, boundPort, err := sockaddr.FromKernel(bound)
	if err != nil {
		unix.Close(fd)
		return nil, &Error{Op: "NewListener", Fd: -1, Kind: KindListenerSetupFailed, Msg: err.Error(), Inner: err}
	}

	ep := Endpoint{family: family, address: address, port: boundPort}
	return &Listener{descriptor: NewDescriptor(fd), endpoint: ep}, nil
}

// Fd returns the raw listening descriptor.
func (l *Listener) Fd() int {
	return l.descriptor.Fd()
}

// Endpoint returns the address the listener is bound to.
func (l *Listener) Endpoint() Endpoint {
	return l.endpoint
}

// Close releases the listener's descriptor. The reactor does this
// during its own destruction (spec §5's descriptor lifecycle
// discipline); callers that never register the listener with a reactor
// must call it themselves.
func (l *Listener) Close() error {
	if !l.descriptor.Valid() {
		return nil
	}
	fd := l.descriptor.Take().Fd()
	return unix.Close(fd)
}
