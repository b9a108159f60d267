package reactor

import "sync"

// MockHandler is a Handler implementation that records every callback
// invocation, for embedders who want to unit test their own code against
// the reactor's contract without a real socket. Mirrors the teacher's
// exported MockBackend.
type MockHandler struct {
	mu sync.Mutex

	ListenSuccessCalls   int
	ShutdownSuccessCalls int
	WaitingCalls         int

	Opened     []*Connection
	Messages   []RecordedMessage
	Closed     []*Connection
	Exceptions []error

	// OnMessageFunc, when set, is invoked in place of the default
	// recording behavior, letting tests drive send()/close() from
	// within the callback the way embedders do.
	OnMessageFunc func(conn *Connection, data []byte)
}

// RecordedMessage captures one on_message call; Data is copied so it
// remains valid after the call returns (the live buffer is only valid
// for the call's duration).
type RecordedMessage struct {
	Fd   int
	Data []byte
}

// NewMockHandler creates an empty MockHandler.
func NewMockHandler() *MockHandler {
	return &MockHandler{}
}

func (h *MockHandler) OnListenSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ListenSuccessCalls++
}

func (h *MockHandler) OnShutdownSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ShutdownSuccessCalls++
}

func (h *MockHandler) OnWaitingForActivity() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.WaitingCalls++
}

func (h *MockHandler) OnOpened(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Opened = append(h.Opened, conn)
}

func (h *MockHandler) OnMessage(conn *Connection, data []byte) {
	if h.OnMessageFunc != nil {
		h.OnMessageFunc(conn, data)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	h.Messages = append(h.Messages, RecordedMessage{Fd: conn.Fd(), Data: cp})
}

func (h *MockHandler) OnClosed(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Closed = append(h.Closed, conn)
}

func (h *MockHandler) OnException(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Exceptions = append(h.Exceptions, err)
}

// MessagesFor concatenates every recorded chunk for fd, in arrival
// order, the way an embedder reconstructs framing from on_message calls
// (spec §8's losslessness-under-read-drain property).
func (h *MockHandler) MessagesFor(fd int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []byte
	for _, m := range h.Messages {
		if m.Fd == fd {
			out = append(out, m.Data...)
		}
	}
	return out
}

var _ Handler = (*MockHandler)(nil)

// NewConnectionForTest constructs a Connection without a real socket, so
// embedders can drive their own Handler implementations against
// MockHandler-style fixtures. The fd is never read from or written to
// unless the caller makes it a real descriptor.
func NewConnectionForTest(fd int, local, remote Endpoint) *Connection {
	return newConnection(fd, local, remote)
}
