package input

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks input loop activity.
type Metrics struct {
	// Event counters
	keysTotal        atomic.Uint64
	commandsTotal    atomic.Uint64
	noMatchTotal     atomic.Uint64
	sequenceTimeouts atomic.Uint64
	hookConsumptions atomic.Uint64
	droppedPending   atomic.Uint64

	// Latency ring buffer
	mu          sync.Mutex
	latencies   []time.Duration
	latencyIdx  int
	peakLatency atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker keeping the latest samples
// latencies.
func NewMetrics(samples int) *Metrics {
	if samples <= 0 {
		samples = 1000
	}
	return &Metrics{
		latencies: make([]time.Duration, samples),
		startTime: time.Now(),
	}
}

// RecordKey records one handled key and how long dispatching took.
func (m *Metrics) RecordKey(latency time.Duration, executed int, noMatch bool) {
	m.keysTotal.Add(1)
	m.commandsTotal.Add(uint64(executed))
	if noMatch {
		m.noMatchTotal.Add(1)
	}

	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % len(m.latencies)
	m.mu.Unlock()

	for {
		peak := m.peakLatency.Load()
		if int64(latency) <= peak || m.peakLatency.CompareAndSwap(peak, int64(latency)) {
			break
		}
	}
}

// RecordTimeout records an expired sequence timeout.
func (m *Metrics) RecordTimeout() {
	m.sequenceTimeouts.Add(1)
}

// RecordHookConsumption records a key consumed by a hook.
func (m *Metrics) RecordHookConsumption() {
	m.hookConsumptions.Add(1)
}

// RecordDropped records pending keys discarded by a mode switch or reset.
func (m *Metrics) RecordDropped() {
	m.droppedPending.Add(1)
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	KeysTotal        uint64
	CommandsTotal    uint64
	NoMatchTotal     uint64
	SequenceTimeouts uint64
	HookConsumptions uint64
	DroppedPending   uint64

	AvgLatency  time.Duration
	P99Latency  time.Duration
	PeakLatency time.Duration

	KeysPerSecond float64
	Uptime        time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	samples := make([]time.Duration, 0, len(m.latencies))
	for _, l := range m.latencies {
		if l > 0 {
			samples = append(samples, l)
		}
	}
	start := m.startTime
	m.mu.Unlock()

	keys := m.keysTotal.Load()
	uptime := time.Since(start)
	snap := MetricsSnapshot{
		KeysTotal:        keys,
		CommandsTotal:    m.commandsTotal.Load(),
		NoMatchTotal:     m.noMatchTotal.Load(),
		SequenceTimeouts: m.sequenceTimeouts.Load(),
		HookConsumptions: m.hookConsumptions.Load(),
		DroppedPending:   m.droppedPending.Load(),
		PeakLatency:      time.Duration(m.peakLatency.Load()),
		Uptime:           uptime,
	}
	if uptime > 0 {
		snap.KeysPerSecond = float64(keys) / uptime.Seconds()
	}
	snap.AvgLatency, snap.P99Latency = latencyStats(samples)
	return snap
}

// latencyStats computes average and p99 of the samples.
func latencyStats(samples []time.Duration) (avg, p99 time.Duration) {
	if len(samples) == 0 {
		return 0, 0
	}

	var sum time.Duration
	for _, l := range samples {
		sum += l
	}
	avg = sum / time.Duration(len(samples))

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	idx := int(float64(len(samples)) * 0.99)
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return avg, samples[idx]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.keysTotal.Store(0)
	m.commandsTotal.Store(0)
	m.noMatchTotal.Store(0)
	m.sequenceTimeouts.Store(0)
	m.hookConsumptions.Store(0)
	m.droppedPending.Store(0)
	m.peakLatency.Store(0)

	m.mu.Lock()
	for i := range m.latencies {
		m.latencies[i] = 0
	}
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}
