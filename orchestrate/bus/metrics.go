package bus

import "sync/atomic"

type MetricsSnapshot struct {
	Published int64
	Received  int64
	Timeouts  int64
	Dropped   int64
}

// Metrics counts bus traffic. Every transport carries one.
type Metrics struct {
	published atomic.Int64
	received  atomic.Int64
	timeouts  atomic.Int64
	dropped   atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordPublished(delta int) {
	m.published.Add(int64(delta))
}

func (m *Metrics) RecordReceived(delta int) {
	m.received.Add(int64(delta))
}

func (m *Metrics) RecordTimeout(delta int) {
	m.timeouts.Add(int64(delta))
}

func (m *Metrics) RecordDropped(delta int) {
	m.dropped.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Published: m.published.Load(),
		Received:  m.received.Load(),
		Timeouts:  m.timeouts.Load(),
		Dropped:   m.dropped.Load(),
	}
}
