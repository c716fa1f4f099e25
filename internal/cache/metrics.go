package cache

import "sync"

// Metrics tracks cache effectiveness in-process.
type Metrics struct {
	mu     sync.RWMutex
	hits   int64
	misses int64
	errors int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordHit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *Metrics) RecordMiss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

func (m *Metrics) RecordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *Metrics) HitRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.hits + m.misses
	if total == 0 {
		return 0
	}
	return float64(m.hits) / float64(total)
}

func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.hits + m.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(m.hits) / float64(total)
	}

	return map[string]interface{}{
		"hits":     m.hits,
		"misses":   m.misses,
		"errors":   m.errors,
		"hit_rate": hitRate,
	}
}
