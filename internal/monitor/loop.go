// Package monitor runs the sample ingestion and reporting loop.
package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rtkit/timertop/internal/cpus"
	"github.com/rtkit/timertop/internal/render"
	"github.com/rtkit/timertop/internal/stats"
	"github.com/rtkit/timertop/internal/tracer"
)

// Reason records why the loop left its running state.
type Reason int

const (
	// ReasonStopped means the operator or the run duration stopped the
	// monitor.
	ReasonStopped Reason = iota
	// ReasonTracerOff means the tracer deactivated itself after one of
	// its latency thresholds was breached.
	ReasonTracerOff
)

// Config wires the monitor loop to its collaborators.
type Config struct {
	Source   tracer.Source
	Recorder tracer.Recorder // optional, used with TracePath
	Stop     *StopController // optional, one is created if nil

	NrCPUs    int
	Monitored *cpus.Set // nil = all CPUs

	Interval time.Duration // poll sleep, default 1s
	Duration time.Duration // 0 = run until stopped

	Divisor uint64 // output unit divisor, default 1000 (us)
	Quiet   bool   // suppress per-cycle renders
	Styled  bool
	Clear   bool // clear the screen before each refresh
	Out     io.Writer

	TracePath string // save the trace window here when the tracer stops itself

	// OnSnapshot, when set, receives a copy of the stats table every
	// time one is rendered. Used by the interactive dashboard.
	OnSnapshot func(snap []stats.CPUStats, elapsed time.Duration)
}

// Result describes a completed run.
type Result struct {
	Reason     Reason
	Samples    uint64
	Elapsed    time.Duration
	TraceSaved bool
}

// Run drives the monitor until a stop is requested, the tracer turns
// itself off, or sample ingestion fails. The ingestion and render steps of
// one cycle are strictly sequential; the only concurrent activity is the
// stop flag write. Poll is expected to return within roughly one interval
// or responsiveness to stop requests degrades accordingly.
//
// Run owns the source for its lifetime and closes it on the way out, even
// when ingestion fails.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Source == nil {
		return Result{}, fmt.Errorf("monitor: source is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Divisor == 0 {
		cfg.Divisor = 1000
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	stop := cfg.Stop
	if stop == nil {
		stop = &StopController{}
	}

	store, err := stats.New(cfg.NrCPUs)
	if err != nil {
		return Result{}, fmt.Errorf("monitor: init: %w", err)
	}
	defer func() { _ = cfg.Source.Close() }()

	if cfg.Duration > 0 {
		timer := time.AfterFunc(cfg.Duration, stop.RequestStop)
		defer timer.Stop()
	}

	r := &render.Renderer{
		Out:       cfg.Out,
		Divisor:   cfg.Divisor,
		Clear:     cfg.Clear && !cfg.Quiet,
		Styled:    cfg.Styled,
		Monitored: cfg.Monitored,
	}

	res := Result{Reason: ReasonStopped}
	start := time.Now()

	for {
		sleep(ctx, cfg.Interval, stop)

		samples, err := cfg.Source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled, not broken: drain normally.
				break
			}
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("monitor: ingest samples: %w", err)
		}
		for _, s := range samples {
			if !cfg.Monitored.Contains(s.CPU) {
				continue
			}
			store.Record(s.CPU, s.ThreadContext, s.Latency)
			res.Samples++
		}

		// The tracer turning itself off takes precedence over a stop
		// request that lands in the same cycle: it means a threshold
		// was breached and there is a trace window worth keeping.
		if !cfg.Source.Active() {
			res.Reason = ReasonTracerOff
			break
		}
		if stop.ShouldStop() || ctx.Err() != nil {
			break
		}

		if !cfg.Quiet {
			emit(r, cfg.OnSnapshot, store, time.Since(start))
		}
	}

	// Draining: the final summary is always shown, quiet or not.
	res.Elapsed = time.Since(start)
	emit(r, cfg.OnSnapshot, store, res.Elapsed)

	if res.Reason == ReasonTracerOff {
		fmt.Fprintln(cfg.Out, "timertop hit stop tracing")
		if cfg.TracePath != "" && cfg.Recorder != nil {
			fmt.Fprintf(cfg.Out, "  saving trace to %s\n", cfg.TracePath)
			if err := cfg.Recorder.Save(cfg.TracePath); err != nil {
				return res, fmt.Errorf("monitor: %w", err)
			}
			res.TraceSaved = true
		}
	}
	return res, nil
}

func emit(r *render.Renderer, hook func([]stats.CPUStats, time.Duration), store *stats.Store, elapsed time.Duration) {
	snap := store.Snapshot()
	_ = r.Render(snap, elapsed)
	if hook != nil {
		hook(snap, elapsed)
	}
}

// sleep waits out the poll interval but wakes early on cancellation so a
// stop request is not delayed by a long interval.
func sleep(ctx context.Context, d time.Duration, stop *StopController) {
	if stop.ShouldStop() {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
