// Package metrics tracks XML-RPC request counts, faults and latency.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MethodStats is the per-method slice of a snapshot
type MethodStats struct {
	Calls         int64         `json:"calls"`
	Faults        int64         `json:"faults"`
	TotalDuration time.Duration `json:"totalDurationNs"`
	MaxDuration   time.Duration `json:"maxDurationNs"`
}

// AverageDuration returns the mean latency of the method's calls.
func (s MethodStats) AverageDuration() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Calls)
}

// Snapshot is a point-in-time copy of the counters, safe to serialise.
type Snapshot struct {
	StartTime  time.Time              `json:"startTime"`
	Uptime     time.Duration          `json:"uptimeNs"`
	Requests   int64                  `json:"requests"`
	Faults     int64                  `json:"faults"`
	MediaBytes int64                  `json:"mediaBytes"`
	FaultCodes map[int]int64          `json:"faultCodes"`
	Methods    map[string]MethodStats `json:"methods"`
}

// RequestMetrics is shared by every request goroutine.
type RequestMetrics struct {
	mu         sync.Mutex
	startTime  time.Time
	requests   int64
	faults     int64
	mediaBytes int64
	faultCodes map[int]int64
	methods    map[string]*MethodStats
}

// NewRequestMetrics creates a new metrics instance.
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		startTime:  time.Now(),
		faultCodes: make(map[int]int64),
		methods:    make(map[string]*MethodStats),
	}
}

// Record adds one dispatched call. faultCode is ignored unless faulted is set.
func (m *RequestMetrics) Record(method string, d time.Duration, faulted bool, faultCode int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	s, ok := m.methods[method]
	if !ok {
		s = &MethodStats{}
		m.methods[method] = s
	}
	s.Calls++
	s.TotalDuration += d
	if d > s.MaxDuration {
		s.MaxDuration = d
	}
	if faulted {
		m.faults++
		s.Faults++
		m.faultCodes[faultCode]++
	}
}

// AddMediaBytes counts uploaded media payload.
func (m *RequestMetrics) AddMediaBytes(n int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.mediaBytes += int64(n)
	m.mu.Unlock()
}

// Snapshot copies the current counters.
func (m *RequestMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		StartTime:  m.startTime,
		Uptime:     time.Since(m.startTime),
		Requests:   m.requests,
		Faults:     m.faults,
		MediaBytes: m.mediaBytes,
		FaultCodes: make(map[int]int64, len(m.faultCodes)),
		Methods:    make(map[string]MethodStats, len(m.methods)),
	}
	for code, n := range m.faultCodes {
		snap.FaultCodes[code] = n
	}
	for name, s := range m.methods {
		snap.Methods[name] = *s
	}
	return snap
}

// String returns a formatted summary (minimal single-line format).
func (m *RequestMetrics) String() string {
	snap := m.Snapshot()

	busiest := ""
	var busiestCalls int64
	names := make([]string, 0, len(snap.Methods))
	for name := range snap.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c := snap.Methods[name].Calls; c > busiestCalls {
			busiest, busiestCalls = name, c
		}
	}

	line := fmt.Sprintf("📊 Served %d calls (%d faults) in %v",
		snap.Requests,
		snap.Faults,
		snap.Uptime.Round(time.Second),
	)
	if busiest != "" {
		line += fmt.Sprintf(", busiest: %s (%d)", busiest, busiestCalls)
	}
	return line
}

// Print outputs the metrics to stdout.
func (m *RequestMetrics) Print() {
	fmt.Println(m.String())
}
