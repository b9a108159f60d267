// Package constants holds the tunables shared by the reactor core and
// the socket/multiplexer plumbing underneath it.
package constants

// Event batch sizing (spec §3 "Event batch").
const (
	// InitialEventBatchCapacity is the number of readiness records the
	// event batch is allocated with at reactor construction.
	InitialEventBatchCapacity = 4096
)

// Read-drain / write-flush sizing (spec §4.4, §4.5).
const (
	// ReadDrainBufferSize is the size of the stack buffer used for each
	// non-blocking recv issued while draining a readable connection.
	ReadDrainBufferSize = 64 * 1024

	// DefaultListenBacklog is used when a listener is constructed with
	// backlog <= 0; it asks the kernel for its own maximum.
	DefaultListenBacklog = 0 // 0 means "use SOMAXCONN", see internal/sockopt.
)

// Resource-limit defaults (spec §4.1 "construct").
const (
	// DefaultMaxFDsHint is the max_fds_hint DefaultConfig supplies; it is
	// a conservative guess, not a hard cap. A hint of 0 or less leaves the
	// process descriptor limit unchanged.
	DefaultMaxFDsHint = 65536
)

// Accept-loop and close-protocol defaults (spec §4.3, §4.6).
const (
	// DefaultIdleTimeoutMillis bounds a single multiplexer wait when the
	// embedder passes a non-positive idle_timeout_ms to Run.
	DefaultIdleTimeoutMillis = 1000
)
