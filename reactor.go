package reactor

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/bufpool"
	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/logging"
	"github.com/behrlich/go-reactor/internal/mux"
	"github.com/behrlich/go-reactor/internal/sockopt"
)

// Config controls Reactor construction. There is no config file or CLI
// (spec §6); this is the struct-of-options the constructor takes,
// mirroring the teacher's DeviceParams/DefaultParams shape.
type Config struct {
	MaxFDsHint                int
	InitialEventBatchCapacity int
	Logger                    *logging.Logger
	Observer                  interfaces.Observer

	// Multiplexer overrides the reactor's readiness backend. Nil (the
	// default) builds an epoll-backed Multiplexer via internal/mux.NewEpoll.
	// Set it to the result of NewIOURingMultiplexer (built with -tags
	// giouring) to drive the reactor over io_uring poll completions
	// instead of epoll.
	Multiplexer mux.Multiplexer
}

// DefaultConfig returns a Config with the tunables from internal/constants
// and a NoOpObserver.
func DefaultConfig() Config {
	return Config{
		MaxFDsHint:                DefaultMaxFDsHint,
		InitialEventBatchCapacity: InitialEventBatchCapacity,
		Logger:                    logging.Default(),
		Observer:                  NoOpObserver{},
	}
}

// Reactor is the core: it owns the readiness multiplexer, the listener,
// the per-connection table, the event batch, the stop flag, and the
// embedder's Handler (spec §2, §4.1). Exactly one goroutine may call Run;
// Send and Close(fd) are only safe from inside a Handler callback, on
// that same goroutine. Stop is the only method safe to call from any
// goroutine.
type Reactor struct {
	handler  Handler
	logger   *logging.Logger
	observer interfaces.Observer

	mx       mux.Multiplexer
	closer   *mux.Closer
	listener *Listener
	table    map[int]*connState
	batch    []mux.Event

	stopFlag atomic.Bool
}

// NewReactor constructs a reactor (spec §4.1 "construct"). It raises the
// process descriptor limit on a best-effort basis, creates the
// multiplexer close-on-exec, and allocates the initial event batch.
// Fails with InitFailed iff the multiplexer cannot be created.
func NewReactor(handler Handler, cfg Config) (*Reactor, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = NoOpObserver{}
	}
	if cfg.InitialEventBatchCapacity <= 0 {
		cfg.InitialEventBatchCapacity = InitialEventBatchCapacity
	}

	raiseFDLimit(cfg.MaxFDsHint, cfg.Logger)

	m := cfg.Multiplexer
	if m == nil {
		var err error
		m, err = mux.NewEpoll(cfg.Logger)
		if err != nil {
			return nil, &Error{Op: "NewReactor", Fd: -1, Kind: KindInitFailed, Msg: err.Error(), Inner: err}
		}
	}

	closer, err := mux.NewCloser()
	if err != nil {
		m.Close()
		return nil, &Error{Op: "NewReactor", Fd: -1, Kind: KindInitFailed, Msg: err.Error(), Inner: err}
	}

	if err := m.Add(closer.Fd(), mux.ReadReady|mux.EdgeTriggered); err != nil {
		closer.Close()
		m.Close()
		return nil, &Error{Op: "NewReactor", Fd: -1, Kind: KindInitFailed, Msg: err.Error(), Inner: err}
	}

	return &Reactor{
		handler:  handler,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		mx:       m,
		closer:   closer,
		table:    make(map[int]*connState),
		batch:    make([]mux.Event, cfg.InitialEventBatchCapacity),
	}, nil
}

// NewIOURingMultiplexer builds an io_uring-backed Multiplexer suitable
// for Config.Multiplexer, without requiring the caller to import the
// internal/mux package directly. It is only linked when this module is
// built with -tags giouring; otherwise it returns an error naming the
// missing build tag. entries sizes the underlying submission/completion
// queues.
func NewIOURingMultiplexer(entries uint32) (mux.Multiplexer, error) {
	return mux.NewIOURing(entries, logging.Default())
}

func raiseFDLimit(hint int, logger *logging.Logger) {
	if hint <= 0 {
		return
	}
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		logger.Warnf("could not read RLIMIT_NOFILE: %v", err)
		return
	}
	want := uint64(hint)
	if want <= rlim.Cur {
		return
	}
	if want > rlim.Max {
		want = rlim.Max
	}
	rlim.Cur = want
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlim); err != nil {
		logger.Warnf("could not raise RLIMIT_NOFILE to %d: %v", want, err)
	}
}

// RegisterListener registers the listener's descriptor with the
// multiplexer for read-readiness in edge-triggered mode. At most one
// listener per reactor (spec §4.1).
func (r *Reactor) RegisterListener(l *Listener) error {
	if r.listener != nil {
		return NewError("RegisterListener", KindRegisterFailed, "a listener is already registered")
	}
	if err := r.mx.Add(l.Fd(), mux.ReadReady|mux.EdgeTriggered); err != nil {
		return &Error{Op: "RegisterListener", Fd: l.Fd(), Kind: KindRegisterFailed, Msg: err.Error(), Inner: err}
	}
	r.listener = l
	return nil
}

// Stop sets the atomic stop flag and wakes any blocked Wait call. Safe
// to call from a signal handler or any goroutine (spec §4.1, §5).
// Idempotent.
func (r *Reactor) Stop() {
	r.stopFlag.Store(true)
	r.closer.Signal()
}

// Send appends bytes to conn's output queue and rearms the multiplexer
// for write-readiness if it wasn't already armed. Safe to call only from
// inside a Handler callback (spec §4.1).
func (r *Reactor) Send(fd int, data []byte) error {
	st, ok := r.table[fd]
	if !ok {
		return NewConnError("Send", fd, KindConnectionIOFailure, "no such connection")
	}
	st.enqueue(bufpool.Get(data))
	if !st.wantWrite {
		st.wantWrite = true
		if err := r.mx.Modify(fd, mux.ReadReady|mux.WriteReady|mux.EdgeTriggered); err != nil {
			return &Error{Op: "Send", Fd: fd, Kind: KindRegisterFailed, Msg: err.Error(), Inner: err}
		}
	}
	return nil
}

// Close marks fd's connection for close (spec §4.1, §4.6). If nothing is
// waiting to be written, the connection is torn down at once and
// OnClosed fires before Close returns; the close is deferred only while
// the output queue still holds bytes, and then completes on a later
// dispatch once write-flush has drained it. Closing an already-closed
// or unknown fd is a no-op.
func (r *Reactor) Close(fd int) {
	st, ok := r.table[fd]
	if !ok {
		return
	}
	st.wantClose = true
	r.tryFinalizeClose(fd)
}

// Run enters the event loop (spec §4.2); it blocks until Stop is called
// or a fatal multiplexer error occurs. A non-positive idleTimeoutMs would
// make the multiplexer wait return immediately on every iteration
// (busy-spinning instead of suspending the I/O thread), so it is clamped
// to DefaultIdleTimeoutMillis.
func (r *Reactor) Run(idleTimeoutMs int) error {
	if idleTimeoutMs <= 0 {
		idleTimeoutMs = DefaultIdleTimeoutMillis
	}

	r.handler.OnListenSuccess()

	for !r.stopFlag.Load() {
		r.handler.OnWaitingForActivity()

		events := r.batch
		n, err := r.mx.Wait(events, idleTimeoutMs)
		if err != nil {
			werr := Wrap("Wait", -1, err)
			r.reportException(&Error{Op: "Wait", Fd: -1, Kind: KindFatalLoop, Msg: werr.Error(), Inner: werr})
			break
		}

		if n == len(events) {
			r.growBatch()
			r.observer.ObserveEventBatchGrowth(len(r.batch))
		}

		for i := 0; i < n; i++ {
			r.dispatch(events[i])
		}

		if r.listener != nil {
			r.acceptLoop()
		}
	}

	r.handler.OnShutdownSuccess()
	return nil
}

func (r *Reactor) growBatch() {
	r.batch = make([]mux.Event, len(r.batch)*2)
}

func (r *Reactor) dispatch(ev mux.Event) {
	if r.listener != nil && ev.Fd == r.listener.Fd() {
		r.acceptLoop()
		return
	}
	if ev.Fd == r.closer.Fd() {
		r.closer.Drain()
		return
	}

	st, ok := r.table[ev.Fd]
	if !ok {
		return
	}

	if st.hasPendingWrites() {
		if r.flush(st) {
			if st.wantWrite {
				st.wantWrite = false
				r.mx.Modify(ev.Fd, mux.ReadReady|mux.EdgeTriggered)
			}
		} else if !st.wantWrite {
			st.wantWrite = true
			r.mx.Modify(ev.Fd, mux.ReadReady|mux.WriteReady|mux.EdgeTriggered)
		}
	}

	if ev.Events&mux.WriteReady != 0 {
		if r.flush(st) {
			st.wantWrite = false
			r.mx.Modify(ev.Fd, mux.ReadReady|mux.EdgeTriggered)
		}
	}

	if ev.Events&(mux.Error|mux.Hangup) != 0 {
		if !st.wantWrite {
			r.closeAndErase(ev.Fd, st)
			return
		}
	}

	if ev.Events&mux.ReadReady != 0 {
		r.readDrain(st)
	}

	r.tryFinalizeClose(ev.Fd)
}

// acceptLoop drains every pending connection off the listener (spec
// §4.3): repeat until accept reports "would block".
func (r *Reactor) acceptLoop() {
	for {
		fd, family, addr, port, err := sockopt.Accept(r.listener.Fd())
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			r.observer.ObserveAccept(false)
			if errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE) {
				r.reportException(NewError("Accept", KindTransientAcceptFailure, err.Error()))
				return
			}
			r.reportException(Wrap("Accept", -1, err))
			continue
		}

		remote := endpointFromKernel(family, addr, port)
		local := r.listener.Endpoint()
		conn := newConnection(fd, local, remote)

		if err := r.mx.Add(fd, mux.ReadReady|mux.EdgeTriggered); err != nil {
			unix.Close(fd)
			r.reportException(&Error{Op: "Accept", Fd: fd, Kind: KindRegisterFailed, Msg: err.Error(), Inner: err})
			continue
		}

		r.table[fd] = newConnState(conn)
		r.observer.ObserveAccept(true)
		r.observer.ObserveOpen()
		r.handler.OnOpened(conn)
	}
}

// readDrain issues non-blocking recvs until the socket reports "would
// block" (spec §4.4).
func (r *Reactor) readDrain(st *connState) {
	conn := st.conn
	var buf [ReadDrainBufferSize]byte

	for !st.wantClose {
		n, err := conn.rawRecv(buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			st.wantClose = true
			r.reportException(Wrap("ReadDrain", conn.Fd(), err))
			return
		}
		if n == 0 {
			st.wantClose = true
			return
		}
		r.observer.ObserveRead(uint64(n))
		r.handler.OnMessage(conn, buf[:n])
	}
}

// flush processes the output queue in FIFO order (spec §4.5), returning
// true only once the queue is fully drained.
func (r *Reactor) flush(st *connState) bool {
	conn := st.conn
	for len(st.outq) > 0 {
		head := st.outq[0]
		if len(head) == 0 {
			st.outq = st.outq[1:]
			continue
		}

		start := time.Now()
		n, err := conn.rawSend(head)
		latencyNs := uint64(time.Since(start).Nanoseconds())

		if err != nil {
			if err == unix.EAGAIN {
				return false
			}
			r.reportException(Wrap("WriteFlush", conn.Fd(), err))
			return false
		}

		r.observer.ObserveWrite(uint64(n), latencyNs)

		if n < len(head) {
			st.outq[0] = head[n:]
			return false
		}

		bufpool.Put(head)
		st.outq = st.outq[1:]
	}
	return true
}

// tryFinalizeClose consummates a deferred close once the output queue
// has drained (spec §4.6).
func (r *Reactor) tryFinalizeClose(fd int) {
	st, ok := r.table[fd]
	if !ok {
		return
	}
	if st.wantClose && !st.wantWrite {
		r.closeAndErase(fd, st)
	}
}

// closeAndErase removes fd from the multiplexer and the connection
// table, invokes OnClosed, then closes the descriptor (spec §4.6's
// ordering: removed from both before OnClosed, closed after).
func (r *Reactor) closeAndErase(fd int, st *connState) {
	r.mx.Remove(fd)
	delete(r.table, fd)
	r.observer.ObserveClose()
	st.conn.open = false
	r.handler.OnClosed(st.conn)
	unix.Close(fd)
}

func (r *Reactor) reportException(err error) {
	r.logger.WithError(err).Warnf("reactor exception")
	r.handler.OnException(err)
}

// Close tears down everything the reactor still owns: every remaining
// connection's descriptor, the listener, the wakeup eventfd, and finally
// the multiplexer (spec §5's descriptor lifecycle discipline). Callers
// invoke it after Run returns; no Handler callback fires during
// teardown (spec §8 scenario 6: "no callback fires after
// on_shutdown_success").
func (r *Reactor) Close() error {
	for fd := range r.table {
		r.mx.Remove(fd)
		unix.Close(fd)
		delete(r.table, fd)
	}
	if r.listener != nil {
		r.listener.Close()
	}
	r.closer.Close()
	return r.mx.Close()
}
