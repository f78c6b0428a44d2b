// Package tracer defines the boundary to the timer latency tracing session
// and a tracefs-backed implementation of it.
package tracer

import "context"

// Sample is one timer latency event delivered by the tracing session.
type Sample struct {
	CPU           int
	ThreadContext bool   // false = IRQ context, true = thread context
	Latency       uint64 // nanoseconds
}

// Source is a live tracing session that buffers latency events between
// polls. Poll must return promptly; the monitor loop calls it once per
// cycle and its responsiveness to cancellation degrades with a slow Poll.
type Source interface {
	// Poll drains and returns the samples buffered since the last call,
	// in arrival order. A failure to retrieve samples is an error; an
	// empty cycle is not.
	Poll(ctx context.Context) ([]Sample, error)

	// Active reports whether the tracing session is still running. The
	// tracer deactivates itself when a configured latency threshold is
	// breached.
	Active() bool

	// Name returns a human-readable identifier for this source.
	Name() string

	// Close stops the session and releases its resources.
	Close() error
}

// Recorder persists the raw trace window of a stopped session, used when
// the tracer deactivated itself and the operator asked for a trace file.
type Recorder interface {
	Save(path string) error
}

// Config holds the session parameters applied before tracing starts.
// Durations are in microseconds, matching the tracer's own knobs.
type Config struct {
	CPUs        string // cpu list ("0-3,7"), empty = all CPUs
	PeriodUs    int64  // timer period, 0 = tracer default
	StopIRQUs   int64  // stop tracing when an IRQ latency exceeds this
	StopTotalUs int64  // stop tracing when a thread latency exceeds this
	StackUs     int64  // dump the IRQ stack when a thread latency exceeds this
}
