package reactor

import (
	"sync/atomic"
	"time"

	"github.com/behrlich/go-reactor/internal/interfaces"
)

// LatencyBuckets defines the write-flush latency histogram buckets in
// nanoseconds, logarithmically spaced from 1us to 10s.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks connection lifecycle and I/O statistics for a reactor.
type Metrics struct {
	ConnectionsOpened atomic.Uint64
	ConnectionsClosed atomic.Uint64
	BytesRead         atomic.Uint64
	BytesWritten      atomic.Uint64
	AcceptErrors      atomic.Uint64
	EventBatchGrowths atomic.Uint64

	totalLatencyNs atomic.Uint64
	flushCount     atomic.Uint64
	latencyBuckets [numLatencyBuckets]atomic.Uint64

	startTime atomic.Int64
}

// NewMetrics creates a zeroed metrics instance with its start time set.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.startTime.Store(time.Now().UnixNano())
	return m
}

// RecordAccept increments AcceptErrors when success is false; successful
// accepts are reflected through RecordOpen instead.
func (m *Metrics) RecordAccept(success bool) {
	if !success {
		m.AcceptErrors.Add(1)
	}
}

// RecordOpen records a connection entering the table.
func (m *Metrics) RecordOpen() {
	m.ConnectionsOpened.Add(1)
}

// RecordClose records a connection leaving the table.
func (m *Metrics) RecordClose() {
	m.ConnectionsClosed.Add(1)
}

// RecordRead records bytes delivered to on_message.
func (m *Metrics) RecordRead(bytes uint64) {
	m.BytesRead.Add(bytes)
}

// RecordWrite records bytes handed to the kernel by write-flush, along
// with how long that flush call took.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64) {
	m.BytesWritten.Add(bytes)
	m.totalLatencyNs.Add(latencyNs)
	m.flushCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.latencyBuckets[i].Add(1)
		}
	}
}

// RecordEventBatchGrowth records the event batch doubling (spec §3).
func (m *Metrics) RecordEventBatchGrowth(newCapacity int) {
	m.EventBatchGrowths.Add(1)
}

// MetricsSnapshot is a point-in-time copy of Metrics' counters plus
// derived statistics.
type MetricsSnapshot struct {
	ConnectionsOpened uint64
	ConnectionsClosed uint64
	BytesRead         uint64
	BytesWritten      uint64
	AcceptErrors      uint64
	EventBatchGrowths uint64

	AvgWriteLatencyNs uint64
	LatencyHistogram  [numLatencyBuckets]uint64
	UptimeNs          uint64
}

// Snapshot copies out the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ConnectionsOpened: m.ConnectionsOpened.Load(),
		ConnectionsClosed: m.ConnectionsClosed.Load(),
		BytesRead:         m.BytesRead.Load(),
		BytesWritten:      m.BytesWritten.Load(),
		AcceptErrors:      m.AcceptErrors.Load(),
		EventBatchGrowths: m.EventBatchGrowths.Load(),
		UptimeNs:          uint64(time.Now().UnixNano() - m.startTime.Load()),
	}
	if count := m.flushCount.Load(); count > 0 {
		snap.AvgWriteLatencyNs = m.totalLatencyNs.Load() / count
	}
	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.latencyBuckets[i].Load()
	}
	return snap
}

// NoOpObserver discards every observation. It is the reactor's default
// Observer when the embedder supplies none.
type NoOpObserver struct{}

func (NoOpObserver) ObserveAccept(success bool)                  {}
func (NoOpObserver) ObserveOpen()                                {}
func (NoOpObserver) ObserveClose()                               {}
func (NoOpObserver) ObserveRead(bytes uint64)                    {}
func (NoOpObserver) ObserveWrite(bytes uint64, latencyNs uint64) {}
func (NoOpObserver) ObserveEventBatchGrowth(newCapacity int)     {}

// MetricsObserver implements interfaces.Observer on top of Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an Observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveAccept(success bool) { o.metrics.RecordAccept(success) }
func (o *MetricsObserver) ObserveOpen()               { o.metrics.RecordOpen() }
func (o *MetricsObserver) ObserveClose()              { o.metrics.RecordClose() }
func (o *MetricsObserver) ObserveRead(bytes uint64)   { o.metrics.RecordRead(bytes) }
func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64) {
	o.metrics.RecordWrite(bytes, latencyNs)
}
func (o *MetricsObserver) ObserveEventBatchGrowth(newCapacity int) {
	o.metrics.RecordEventBatchGrowth(newCapacity)
}

var (
	_ interfaces.Observer = (*MetricsObserver)(nil)
	_ interfaces.Observer = NoOpObserver{}
)
