package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Feed counters
	framesReceived  atomic.Uint64
	framesDropped   atomic.Uint64 // inbox full
	framesMalformed atomic.Uint64
	eventsApplied   atomic.Uint64
	eventsIgnored   atomic.Uint64

	// Transport counters
	reconnects    atomic.Uint64
	snapshotLoads atomic.Uint64

	// Order counters
	ordersSubmitted atomic.Uint64
	ordersRejected  atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFrame records a frame read off the feed.
func (m *Metrics) RecordFrame() {
	m.framesReceived.Add(1)
}

// RecordFrameDropped records a frame discarded because the inbox was full.
func (m *Metrics) RecordFrameDropped() {
	m.framesDropped.Add(1)
}

// RecordMalformed records a frame that failed to decode.
func (m *Metrics) RecordMalformed() {
	m.framesMalformed.Add(1)
}

// RecordApplied records an event applied to the book.
func (m *Metrics) RecordApplied() {
	m.eventsApplied.Add(1)
}

// RecordIgnored records a decoded frame dropped as unclassifiable or stale.
func (m *Metrics) RecordIgnored() {
	m.eventsIgnored.Add(1)
}

// RecordReconnect records a feed reconnection attempt.
func (m *Metrics) RecordReconnect() {
	m.reconnects.Add(1)
}

// RecordSnapshotLoad records a successful full-book snapshot load.
func (m *Metrics) RecordSnapshotLoad() {
	m.snapshotLoads.Add(1)
}

// RecordOrderSubmitted records an order accepted by the upstream.
func (m *Metrics) RecordOrderSubmitted() {
	m.ordersSubmitted.Add(1)
}

// RecordOrderRejected records an order rejected before or during submission.
func (m *Metrics) RecordOrderRejected() {
	m.ordersRejected.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FramesReceived  uint64    `json:"frames_received"`
	FramesDropped   uint64    `json:"frames_dropped"`
	FramesMalformed uint64    `json:"frames_malformed"`
	EventsApplied   uint64    `json:"events_applied"`
	EventsIgnored   uint64    `json:"events_ignored"`
	Reconnects      uint64    `json:"reconnects"`
	SnapshotLoads   uint64    `json:"snapshot_loads"`
	OrdersSubmitted uint64    `json:"orders_submitted"`
	OrdersRejected  uint64    `json:"orders_rejected"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FramesReceived:  m.framesReceived.Load(),
		FramesDropped:   m.framesDropped.Load(),
		FramesMalformed: m.framesMalformed.Load(),
		EventsApplied:   m.eventsApplied.Load(),
		EventsIgnored:   m.eventsIgnored.Load(),
		Reconnects:      m.reconnects.Load(),
		SnapshotLoads:   m.snapshotLoads.Load(),
		OrdersSubmitted: m.ordersSubmitted.Load(),
		OrdersRejected:  m.ordersRejected.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset zeroes all counters. Test helper.
func (m *Metrics) Reset() {
	m.framesReceived.Store(0)
	m.framesDropped.Store(0)
	m.framesMalformed.Store(0)
	m.eventsApplied.Store(0)
	m.eventsIgnored.Store(0)
	m.reconnects.Store(0)
	m.snapshotLoads.Store(0)
	m.ordersSubmitted.Store(0)
	m.ordersRejected.Store(0)
}
