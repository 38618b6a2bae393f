// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters. Keys are created on first use and only grow.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsRegistry holds named int64 counters.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Int64
	updated  atomic.Int64 // unix nanos of the last change
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]*atomic.Int64),
	}
}

// Add increments key by delta and returns the new value.
func (mr *MetricsRegistry) Add(key string, delta int64) int64 {
	mr.mu.RLock()
	c, ok := mr.counters[key]
	mr.mu.RUnlock()
	if !ok {
		mr.mu.Lock()
		if c, ok = mr.counters[key]; !ok {
			c = new(atomic.Int64)
			mr.counters[key] = c
		}
		mr.mu.Unlock()
	}
	mr.updated.Store(time.Now().UnixNano())
	return c.Add(delta)
}

// Get returns the current value of key, zero if it was never added.
func (mr *MetricsRegistry) Get(key string) int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	if c, ok := mr.counters[key]; ok {
		return c.Load()
	}
	return 0
}

// GetSnapshot returns the latest counter values.
func (mr *MetricsRegistry) GetSnapshot() map[string]int64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]int64, len(mr.counters))
	for k, c := range mr.counters {
		out[k] = c.Load()
	}
	return out
}

// Updated returns the time of the last Add, zero if none.
func (mr *MetricsRegistry) Updated() time.Time {
	ns := mr.updated.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
