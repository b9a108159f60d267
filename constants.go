package reactor

import "github.com/behrlich/go-reactor/internal/constants"

// Re-exported tunables; see internal/constants for the authoritative
// values and their grounding.
const (
	InitialEventBatchCapacity = constants.InitialEventBatchCapacity
	ReadDrainBufferSize       = constants.ReadDrainBufferSize
	DefaultListenBacklog      = constants.DefaultListenBacklog
	DefaultMaxFDsHint         = constants.DefaultMaxFDsHint
	DefaultIdleTimeoutMillis  = constants.DefaultIdleTimeoutMillis
)
