package cache

import (
	"sync/atomic"

	"github.com/xxxsen/docqa/internal/model"
)

// Metrics holds the process-wide cache counters. One instance is created at
// startup and injected everywhere it is read or written; increments are
// atomic so concurrent requests can update it without coordination. Reset
// only happens through an explicit administrative call.
type Metrics struct {
	hits       atomic.Int64
	misses     atomic.Int64
	errors     atomic.Int64
	corrupt    atomic.Int64
	estSavedMs atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Hit records a cache hit, crediting the generation latency the hit avoided.
func (m *Metrics) Hit(savedMs int64) {
	m.hits.Add(1)
	if savedMs > 0 {
		m.estSavedMs.Add(savedMs)
	}
}

func (m *Metrics) Miss() {
	m.misses.Add(1)
}

func (m *Metrics) BackendError() {
	m.errors.Add(1)
}

// CorruptPayload records a present-but-undecodable entry. The lookup is
// still counted as a miss by the caller; this counter exists so corruption
// is visible instead of blending into ordinary misses.
func (m *Metrics) CorruptPayload() {
	m.corrupt.Add(1)
}

func (m *Metrics) Snapshot() model.CacheMetricsSnapshot {
	hits := m.hits.Load()
	misses := m.misses.Load()
	snap := model.CacheMetricsSnapshot{
		Hits:            hits,
		Misses:          misses,
		Errors:          m.errors.Load(),
		CorruptPayloads: m.corrupt.Load(),
		EstSavedMs:      m.estSavedMs.Load(),
	}
	if total := hits + misses; total > 0 {
		snap.HitRate = float64(hits) / float64(total)
	}
	return snap
}

func (m *Metrics) Reset() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.errors.Store(0)
	m.corrupt.Store(0)
	m.estSavedMs.Store(0)
}
