//go:build !giouring

package mux

import (
	"fmt"

	"github.com/behrlich/go-reactor/internal/interfaces"
)

// NewIOURing is unavailable unless this module is built with -tags
// giouring. Rebuild with that tag to link github.com/pawelgaczynski/giouring
// and use the io_uring-backed Multiplexer instead of the default epoll one.
func NewIOURing(entries uint32, logger interfaces.Logger) (Multiplexer, error) {
	return nil, fmt.Errorf("mux: build with -tags giouring to enable the io_uring backend: %w", ErrUnsupportedPlatform)
}
