package dispatcher

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-binding metrics, keyed by mode and keys.
	bindingMetrics map[string]*BindingMetrics

	// Global counters
	totalKeys     uint64
	totalExecuted uint64
	totalNoMatch  uint64
	totalWaits    uint64
	totalRemaps   uint64
	totalErrors   uint64
	totalPanics   uint64

	// Timing
	totalDuration time.Duration
}

// BindingMetrics holds metrics for one binding.
type BindingMetrics struct {
	Mode          string
	Keys          string
	ExecCount     uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	LastExec      time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		bindingMetrics: make(map[string]*BindingMetrics),
	}
}

// recordExec records a handler run.
func (m *Metrics) recordExec(modeName, keys string, duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalExecuted++
	m.totalDuration += duration
	if failed {
		m.totalErrors++
	}

	id := modeName + "\x00" + keys
	bm := m.bindingMetrics[id]
	if bm == nil {
		bm = &BindingMetrics{Mode: modeName, Keys: keys}
		m.bindingMetrics[id] = bm
	}
	bm.ExecCount++
	bm.TotalDuration += duration
	bm.LastExec = time.Now()
	if duration > bm.MaxDuration {
		bm.MaxDuration = duration
	}
	if failed {
		bm.ErrorCount++
	}
}

func (m *Metrics) recordResult(keys int, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalKeys += uint64(keys)
	switch status {
	case StatusNoMatch:
		m.totalNoMatch++
	case StatusWaiting, StatusWaitingShort:
		m.totalWaits++
	}
}

func (m *Metrics) recordRemap() {
	m.mu.Lock()
	m.totalRemaps++
	m.mu.Unlock()
}

func (m *Metrics) recordPanic() {
	m.mu.Lock()
	m.totalPanics++
	m.mu.Unlock()
}

// BindingStats returns metrics for the binding of keys in a mode.
func (m *Metrics) BindingStats(modeName, keys string) *BindingMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bm := m.bindingMetrics[modeName+"\x00"+keys]
	if bm == nil {
		return nil
	}
	copy := *bm
	return &copy
}

// TopBindings returns the n most executed bindings.
func (m *Metrics) TopBindings(n int) []*BindingMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*BindingMetrics, 0, len(m.bindingMetrics))
	for _, bm := range m.bindingMetrics {
		copy := *bm
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExecCount != out[j].ExecCount {
			return out[i].ExecCount > out[j].ExecCount
		}
		return out[i].Keys < out[j].Keys
	})
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bindingMetrics = make(map[string]*BindingMetrics)
	m.totalKeys = 0
	m.totalExecuted = 0
	m.totalNoMatch = 0
	m.totalWaits = 0
	m.totalRemaps = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TotalKeys       uint64
	TotalExecuted   uint64
	TotalNoMatch    uint64
	TotalWaits      uint64
	TotalRemaps     uint64
	TotalErrors     uint64
	TotalPanics     uint64
	AverageDuration time.Duration
	BindingCount    int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalKeys:     m.totalKeys,
		TotalExecuted: m.totalExecuted,
		TotalNoMatch:  m.totalNoMatch,
		TotalWaits:    m.totalWaits,
		TotalRemaps:   m.totalRemaps,
		TotalErrors:   m.totalErrors,
		TotalPanics:   m.totalPanics,
		BindingCount:  len(m.bindingMetrics),
		Timestamp:     time.Now(),
	}
	if m.totalExecuted > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalExecuted)
	}
	return snapshot
}

// AverageDuration returns the average handler duration of the binding.
func (bm *BindingMetrics) AverageDuration() time.Duration {
	if bm.ExecCount == 0 {
		return 0
	}
	return bm.TotalDuration / time.Duration(bm.ExecCount)
}
