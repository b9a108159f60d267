package reactor

import (
	"golang.org/x/sys/unix"
)

// Connection is ownership of one accepted descriptor together with its
// local and remote endpoints (spec §3). It exposes raw, non-blocking
// send/recv used internally by the reactor's read-drain and write-flush;
// embedders interact with it only through send(conn, bytes)/close(conn)
// on the Reactor.
type Connection struct {
	descriptor Descriptor
	local      Endpoint
	remote     Endpoint
	open       bool
}

// newConnection wraps an accepted descriptor. open starts true; it flips
// to false exactly once, right before OnClosed fires.
func newConnection(fd int, local, remote Endpoint) *Connection {
	return &Connection{
		descriptor: NewDescriptor(fd),
		local:      local,
		remote:     remote,
		open:       true,
	}
}

// Fd returns the raw descriptor backing this connection.
func (c *Connection) Fd() int {
	return c.descriptor.Fd()
}

// LocalEndpoint returns the connection's local address.
func (c *Connection) LocalEndpoint() Endpoint {
	return c.local
}

// RemoteEndpoint returns the connection's peer address.
func (c *Connection) RemoteEndpoint() Endpoint {
	return c.remote
}

// Open reports whether on_closed has not yet fired for this connection.
func (c *Connection) Open() bool {
	return c.open
}

// rawRecv issues a single non-blocking recv into buf, returning (n, nil)
// on success, (0, nil) on EOF, or (0, unix.EAGAIN) when the socket is
// drained. Any other error is returned unwrapped for the caller to
// classify (spec §4.4).
func (c *Connection) rawRecv(buf []byte) (int, error) {
	n, err := unix.Read(c.descriptor.Fd(), buf)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// rawSend issues a single non-blocking send of p with "no SIGPIPE"
// semantics, returning the number of bytes actually written (spec §4.5,
// §6).
func (c *Connection) rawSend(p []byte) (int, error) {
	n, err := unix.Send(c.descriptor.Fd(), p, unix.MSG_NOSIGNAL)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// connState is the per-connection reactor state (spec §3): the shared
// connection handle, its pending output queue, and the two flags that
// drive multiplexer rearming and deferred close.
type connState struct {
	conn      *Connection
	outq      [][]byte
	wantWrite bool
	wantClose bool
}

func newConnState(conn *Connection) *connState {
	return &connState{conn: conn}
}

// enqueue appends a chunk to the output queue. Empty chunks are dropped;
// write-flush treats an empty head chunk as "pop and continue" so there
// is no reason to ever enqueue one.
func (s *connState) enqueue(p []byte) {
	if len(p) == 0 {
		return
	}
	s.outq = append(s.outq, p)
}

func (s *connState) hasPendingWrites() bool {
	return len(s.outq) > 0
}
