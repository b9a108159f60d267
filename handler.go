package reactor

// Handler is the capability interface an embedder supplies to a
// Reactor (spec §4.1, §9's "inheritance-by-callbacks ⇒ capability
// interface" redesign note). The reactor owns the handler; the handler
// owns nothing the reactor also owns. Every method runs on the single
// I/O thread and must not block.
type Handler interface {
	// OnListenSuccess fires once, before the first multiplexer wait.
	OnListenSuccess()

	// OnShutdownSuccess fires once, after the event loop exits.
	OnShutdownSuccess()

	// OnWaitingForActivity fires once per loop iteration, before the
	// multiplexer wait. Embedders use it for idle housekeeping and for
	// draining cross-thread work queues (spec §5).
	OnWaitingForActivity()

	// OnOpened fires once a connection is accepted and registered,
	// before any OnMessage for that connection.
	OnOpened(conn *Connection)

	// OnMessage fires for each non-empty chunk recv returns. data is
	// only valid for the duration of the call.
	OnMessage(conn *Connection, data []byte)

	// OnClosed fires once, after the connection is removed from the
	// multiplexer and the connection table, before its descriptor is
	// closed.
	OnClosed(conn *Connection)

	// OnException fires for recoverable errors and for the one fatal
	// loop error; it is advisory only, the reactor decides whether to
	// continue.
	OnException(err error)
}
