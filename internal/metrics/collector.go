// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpEmbedding   = "embedding"
	OpVectorQuery = "vector_query"
	OpGeneration  = "generation"
	OpIngest      = "ingest"
	OpChat        = "chat"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Errors      int64   `json:"errors"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot represents the full service statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64                      `json:"uptime_seconds"`
	Operations    map[string]OperationSnapshot `json:"operations"`
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// Record adds one observation for the operation.
func (c *Collector) Record(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: duration, MaxTime: duration}
		c.ops[op] = m
	}

	m.Count++
	if err != nil {
		m.Errors++
	}
	m.TotalTime += duration
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Time runs fn and records its duration under op.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.Record(op, time.Since(start), err)
	return err
}

// Snapshot returns computed stats for all operations.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Operations:    make(map[string]OperationSnapshot, len(c.ops)),
	}
	for name, m := range c.ops {
		os := OperationSnapshot{
			Count:       m.Count,
			Errors:      m.Errors,
			TotalTimeMs: m.TotalTime.Milliseconds(),
			MinTimeMs:   m.MinTime.Milliseconds(),
			MaxTimeMs:   m.MaxTime.Milliseconds(),
		}
		if m.Count > 0 {
			os.AvgTimeMs = float64(m.TotalTime.Milliseconds()) / float64(m.Count)
		}
		snap.Operations[name] = os
	}
	return snap
}
