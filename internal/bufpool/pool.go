// Package bufpool provides pooled byte slices for the reactor's
// per-connection output queue, avoiding hot-path allocations when
// embedders call Send repeatedly under steady traffic.
//
// Uses size-bucketed pools with power-of-2-ish sizes (4KB, 16KB, 64KB,
// 256KB) to balance memory efficiency against allocation reduction.
// Chunks larger than the biggest bucket are allocated directly and never
// pooled — Send is not expected to be called with multi-megabyte chunks
// on a hot path.
package bufpool

import "sync"

const (
	size4k   = 4 * 1024
	size16k  = 16 * 1024
	size64k  = 64 * 1024
	size256k = 256 * 1024
)

var globalPool = struct {
	pool4k   sync.Pool
	pool16k  sync.Pool
	pool64k  sync.Pool
	pool256k sync.Pool
}{
	pool4k:   sync.Pool{New: func() any { b := make([]byte, size4k); return &b }},
	pool16k:  sync.Pool{New: func() any { b := make([]byte, size16k); return &b }},
	pool64k:  sync.Pool{New: func() any { b := make([]byte, size64k); return &b }},
	pool256k: sync.Pool{New: func() any { b := make([]byte, size256k); return &b }},
}

// Get returns a pooled buffer copying in `data`, sized at least len(data).
// Buffers larger than the largest bucket are allocated directly.
func Get(data []byte) []byte {
	n := len(data)
	var buf []byte
	switch {
	case n <= size4k:
		buf = (*globalPool.pool4k.Get().(*[]byte))[:n]
	case n <= size16k:
		buf = (*globalPool.pool16k.Get().(*[]byte))[:n]
	case n <= size64k:
		buf = (*globalPool.pool64k.Get().(*[]byte))[:n]
	case n <= size256k:
		buf = (*globalPool.pool256k.Get().(*[]byte))[:n]
	default:
		buf = make([]byte, n)
	}
	copy(buf, data)
	return buf
}

// Put returns a buffer to the pool it came from, based on capacity.
// Buffers with a non-bucket capacity (e.g. the over-256KB case, or a
// slice trimmed below its bucket's floor by write-flush) are simply
// dropped for the GC to reclaim.
func Put(buf []byte) {
	c := cap(buf)
	full := buf[:c]
	switch c {
	case size4k:
		globalPool.pool4k.Put(&full)
	case size16k:
		globalPool.pool16k.Put(&full)
	case size64k:
		globalPool.pool64k.Put(&full)
	case size256k:
		globalPool.pool256k.Put(&full)
	}
}
