//go:build !linux

package mux

import "github.com/behrlich/go-reactor/internal/interfaces"

// NewEpoll is unavailable outside Linux. The spec's Windows target uses
// wepoll, a thin C shim over IOCP with no pure-Go binding in the
// retrieval pack this module was grounded on; wiring a real Windows
// backend would mean fabricating a dependency, which is worse than
// admitting the gap. Build on Linux: the reactor also depends on the
// Linux-only eventfd Closer, so a Multiplexer of your own does not make
// it build elsewhere.
func NewEpoll(logger interfaces.Logger) (Multiplexer, error) {
	return nil, ErrUnsupportedPlatform
}
