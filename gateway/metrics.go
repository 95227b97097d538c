package gateway

import (
	"sync"
	"time"

	"github.com/dadabin81/cloud-ai-forge-sub003/llm"
)

// Metrics accumulates per-gateway dispatch counters. Safe for concurrent use.
type Metrics struct {
	mu           sync.Mutex
	requests     int64
	cacheHits    int64
	errors       int64
	totalLatency time.Duration
	usage        llm.Usage
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Requests     int64
	CacheHits    int64
	Errors       int64
	TotalLatency time.Duration
	Usage        llm.Usage
}

func (m *Metrics) recordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.cacheHits++
}

func (m *Metrics) recordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.errors++
}

func (m *Metrics) recordSuccess(latency time.Duration, usage llm.Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	m.totalLatency += latency
	m.usage = m.usage.Add(usage)
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:     m.requests,
		CacheHits:    m.cacheHits,
		Errors:       m.errors,
		TotalLatency: m.totalLatency,
		Usage:        m.usage,
	}
}
