package reactor

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/behrlich/go-reactor/internal/mux"
)

// echoHandler sends back whatever it receives, then records closes.
type echoHandler struct {
	*MockHandler
	reactor *Reactor
}

func newEchoHandler() *echoHandler {
	h := &echoHandler{MockHandler: NewMockHandler()}
	h.OnMessageFunc = func(conn *Connection, data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		h.reactor.Send(conn.Fd(), cp)
	}
	return h
}

func startTestReactor(t *testing.T, handler *echoHandler) (*Reactor, *Listener, string) {
	t.Helper()

	l, err := NewListener(FamilyIPv4, "127.0.0.1", 0, DefaultListenerConfig())
	if err != nil {
		t.Fatalf("NewListener() error = %v", err)
	}

	r, err := NewReactor(handler, DefaultConfig())
	if err != nil {
		l.Close()
		t.Fatalf("NewReactor() error = %v", err)
	}
	handler.reactor = r

	if err := r.RegisterListener(l); err != nil {
		l.Close()
		r.Close()
		t.Fatalf("RegisterListener() error = %v", err)
	}

	addr := net.JoinHostPort(l.Endpoint().Address(), strconv.Itoa(l.Endpoint().Port()))

	done := make(chan struct{})
	go func() {
		r.Run(50)
		close(done)
	}()
	t.Cleanup(func() {
		r.Stop()
		<-done
		r.Close()
	})

	return r, l, addr
}

func TestReactorEchoRoundTrip(t *testing.T) {
	h := newEchoHandler()
	_, _, addr := startTestReactor(t, h)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ping\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf[:n]) != "ping\n" {
		t.Errorf("echoed data = %q, want %q", buf[:n], "ping\n")
	}
}

func TestReactorOpenAndCloseCallbacks(t *testing.T) {
	h := newEchoHandler()
	_, _, addr := startTestReactor(t, h)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		closed := len(h.Closed)
		h.mu.Unlock()
		if closed > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Opened) != 1 {
		t.Errorf("OnOpened calls = %d, want 1", len(h.Opened))
	}
	if len(h.Closed) != 1 {
		t.Errorf("OnClosed calls = %d, want 1", len(h.Closed))
	}
}

func TestNewReactorUsesInjectedMultiplexer(t *testing.T) {
	injected, err := mux.NewEpoll(nil)
	if err != nil {
		t.Fatalf("mux.NewEpoll() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.Multiplexer = injected

	r, err := NewReactor(NewMockHandler(), cfg)
	if err != nil {
		injected.Close()
		t.Fatalf("NewReactor() error = %v", err)
	}
	defer r.Close()

	if r.mx != injected {
		t.Errorf("NewReactor() built its own multiplexer instead of using cfg.Multiplexer")
	}
}

func TestNewReactorBuildsDefaultMultiplexerWhenNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Multiplexer = nil

	r, err := NewReactor(NewMockHandler(), cfg)
	if err != nil {
		t.Fatalf("NewReactor() error = %v", err)
	}
	defer r.Close()

	if r.mx == nil {
		t.Error("NewReactor() left mx nil when cfg.Multiplexer was nil")
	}
}

// recordingMux is a no-op Multiplexer that records the timeoutMs passed
// to every Wait call, used to prove Run clamps non-positive timeouts
// instead of forwarding them straight to the backend.
type recordingMux struct {
	mu        sync.Mutex
	timeouts  []int
	waitCalls chan struct{}
}

func (m *recordingMux) Add(fd int, mask uint32) error    { return nil }
func (m *recordingMux) Modify(fd int, mask uint32) error { return nil }
func (m *recordingMux) Remove(fd int) error              { return nil }
func (m *recordingMux) Close() error                     { return nil }

func (m *recordingMux) Wait(events []mux.Event, timeoutMs int) (int, error) {
	m.mu.Lock()
	m.timeouts = append(m.timeouts, timeoutMs)
	m.mu.Unlock()
	select {
	case m.waitCalls <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestRunClampsNonPositiveIdleTimeout(t *testing.T) {
	rm := &recordingMux{waitCalls: make(chan struct{}, 1)}
	cfg := DefaultConfig()
	cfg.Multiplexer = rm

	r, err := NewReactor(NewMockHandler(), cfg)
	if err != nil {
		t.Fatalf("NewReactor() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		r.Run(0)
		close(done)
	}()

	select {
	case <-rm.waitCalls:
	case <-time.After(2 * time.Second):
		t.Fatal("Run(0) never reached a Wait call")
	}

	r.Stop()
	<-done
	r.Close()

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.timeouts) == 0 {
		t.Fatal("Wait() was never called")
	}
	if rm.timeouts[0] != DefaultIdleTimeoutMillis {
		t.Errorf("Run(0) passed timeoutMs = %d to Wait, want clamped default %d", rm.timeouts[0], DefaultIdleTimeoutMillis)
	}
}

func TestGrowBatchDoublesCapacity(t *testing.T) {
	r := &Reactor{batch: make([]mux.Event, 4)}
	r.growBatch()
	if len(r.batch) != 8 {
		t.Errorf("len(batch) after growBatch = %d, want 8", len(r.batch))
	}
	r.growBatch()
	if len(r.batch) != 16 {
		t.Errorf("len(batch) after second growBatch = %d, want 16", len(r.batch))
	}
}
