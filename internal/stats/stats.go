// Package stats holds the per-CPU running aggregates of timer latency samples.
package stats

import "fmt"

// ContextStats aggregates latencies observed in one execution context
// (IRQ or thread) on a single CPU. All latencies are in nanoseconds.
type ContextStats struct {
	Count uint64
	Cur   uint64
	Min   uint64
	Sum   uint64
	Max   uint64

	seen bool
}

// Seen reports whether at least one sample has been recorded, i.e. whether
// Min carries a value. Before the first sample Min is unset, not zero.
func (c *ContextStats) Seen() bool { return c.seen }

// Avg returns the truncated integer average, or 0 if no samples were seen.
func (c *ContextStats) Avg() uint64 {
	if c.Count == 0 {
		return 0
	}
	return c.Sum / c.Count
}

// record applies one latency sample to the group.
func (c *ContextStats) record(latency uint64) {
	c.Count++
	c.Cur = latency
	if !c.seen || latency < c.Min {
		c.Min = latency
	}
	if latency > c.Max {
		c.Max = latency
	}
	c.Sum += latency
	c.seen = true
}

// CPUStats holds the two per-context aggregate groups for one CPU.
type CPUStats struct {
	IRQ    ContextStats
	Thread ContextStats
}

// Idle reports whether the CPU has produced no samples in either context.
// Idle CPUs are omitted from rendered output.
func (c *CPUStats) Idle() bool {
	return c.IRQ.Count == 0 && c.Thread.Count == 0
}

// Store is a fixed-size table of per-CPU aggregates. It is sized once at
// monitor start and never resized. The Store is not goroutine-safe: the
// monitor loop is its only writer, and reads happen on the same goroutine
// between ingestion cycles.
type Store struct {
	cpus []CPUStats
}

// New allocates a Store for nrCPUs CPUs, all groups empty with unset minimums.
func New(nrCPUs int) (*Store, error) {
	if nrCPUs <= 0 {
		return nil, fmt.Errorf("stats: invalid cpu count %d", nrCPUs)
	}
	return &Store{cpus: make([]CPUStats, nrCPUs)}, nil
}

// NrCPUs returns the number of CPUs the store was sized for.
func (s *Store) NrCPUs() int { return len(s.cpus) }

// Record applies one sample to the CPU's IRQ or thread group. Samples for
// CPUs outside the table are dropped; the tracer can be configured for a
// CPU subset narrower than what it reports.
func (s *Store) Record(cpu int, threadContext bool, latency uint64) {
	if cpu < 0 || cpu >= len(s.cpus) {
		return
	}
	if threadContext {
		s.cpus[cpu].Thread.record(latency)
	} else {
		s.cpus[cpu].IRQ.record(latency)
	}
}

// CPU returns the aggregates for one CPU id.
func (s *Store) CPU(cpu int) *CPUStats {
	return &s.cpus[cpu]
}

// Snapshot returns a copy of the whole table, safe to render while the
// caller keeps recording into the Store.
func (s *Store) Snapshot() []CPUStats {
	out := make([]CPUStats, len(s.cpus))
	copy(out, s.cpus)
	return out
}
