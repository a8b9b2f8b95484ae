// Package metrics provides in-memory runtime statistics for generation calls and row appends.
package metrics

import (
	"sync"
	"time"
)

// series accumulates count, sum and range of int64 samples.
type series struct {
	n, sum, min, max int64
}

func (s *series) add(v int64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.n++
	s.sum += v
}

func (s series) avg() float64 {
	if s.n == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.n)
}

// opStats holds duration (ms) and token series for one operation.
type opStats struct {
	durationMs series
	in, out    series
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Token stats (nil if not applicable)
	TotalInputTokens  *int64   `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64   `json:"total_output_tokens,omitempty"`
	AvgInputTokens    *float64 `json:"avg_input_tokens,omitempty"`
	AvgOutputTokens   *float64 `json:"avg_output_tokens,omitempty"`
	MinInputTokens    *int64   `json:"min_input_tokens,omitempty"`
	MaxInputTokens    *int64   `json:"max_input_tokens,omitempty"`
	MinOutputTokens   *int64   `json:"min_output_tokens,omitempty"`
	MaxOutputTokens   *int64   `json:"max_output_tokens,omitempty"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	Summarize     *OperationSnapshot `json:"summarize,omitempty"`
	Resolve       *OperationSnapshot `json:"resolve,omitempty"`
	SinkAppend    *OperationSnapshot `json:"sink_append,omitempty"`
	Outcomes      map[string]int64   `json:"outcomes"`
}

// Operation names for the collector.
const (
	OpSummarize  = "llm_summarize"
	OpResolve    = "llm_resolve"
	OpSinkAppend = "sink_append"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*opStats
	outcomes  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*opStats),
		outcomes:  make(map[string]int64),
	}
}

// RecordOutcome counts a named outcome, e.g. "resolve_high" or "summary_failed".
func (c *Collector) RecordOutcome(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[name]++
}

func (c *Collector) op(name string) *opStats {
	m, ok := c.ops[name]
	if !ok {
		m = &opStats{}
		c.ops[name] = m
	}
	return m
}

// RecordTiming records the duration of an operation without token usage.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.op(op).durationMs.add(duration.Milliseconds())
}

// RecordLLMUsage records the duration and token usage of a generation call.
// Calls whose provider reported no usage still count toward the token series as zero.
func (c *Collector) RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.op(op)
	m.durationMs.add(duration.Milliseconds())
	m.in.add(inputTokens)
	m.out.add(outputTokens)
}

func ptr[T any](v T) *T { return &v }

// snapshot returns nil for operations that never ran. Token fields are set only
// when any tokens were reported.
func (m *opStats) snapshot() *OperationSnapshot {
	if m == nil || m.durationMs.n == 0 {
		return nil
	}

	d := m.durationMs
	snap := &OperationSnapshot{
		Count:       d.n,
		TotalTimeMs: d.sum,
		AvgTimeMs:   d.avg(),
		MinTimeMs:   d.min,
		MaxTimeMs:   d.max,
	}

	if m.in.sum > 0 || m.out.sum > 0 {
		snap.TotalInputTokens = ptr(m.in.sum)
		snap.TotalOutputTokens = ptr(m.out.sum)
		snap.AvgInputTokens = ptr(m.in.avg())
		snap.AvgOutputTokens = ptr(m.out.avg())
		snap.MinInputTokens = ptr(m.in.min)
		snap.MaxInputTokens = ptr(m.in.max)
		snap.MinOutputTokens = ptr(m.out.min)
		snap.MaxOutputTokens = ptr(m.out.max)
	}
	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	outcomes := make(map[string]int64, len(c.outcomes))
	for k, v := range c.outcomes {
		outcomes[k] = v
	}

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Summarize:     c.ops[OpSummarize].snapshot(),
		Resolve:       c.ops[OpResolve].snapshot(),
		SinkAppend:    c.ops[OpSinkAppend].snapshot(),
		Outcomes:      outcomes,
	}
}
