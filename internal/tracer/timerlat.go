package tracer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultTracefs is where the kernel mounts the tracing filesystem.
const DefaultTracefs = "/sys/kernel/tracing"

// TracefsSource drives the kernel timerlat tracer through tracefs files.
// It implements Source and Recorder. Poll reads the trace buffer and then
// clears it, so every event is delivered exactly once.
type TracefsSource struct {
	dir string
}

// NewTracefs opens the tracing filesystem at dir (DefaultTracefs when
// empty) and verifies the timerlat tracer is available on this kernel.
func NewTracefs(dir string) (*TracefsSource, error) {
	if dir == "" {
		dir = DefaultTracefs
	}
	avail, err := os.ReadFile(filepath.Join(dir, "available_tracers"))
	if err != nil {
		return nil, fmt.Errorf("tracer: open tracefs: %w", err)
	}
	if !strings.Contains(string(avail), "timerlat") {
		return nil, fmt.Errorf("tracer: timerlat tracer not available in %s", dir)
	}
	return &TracefsSource{dir: dir}, nil
}

// Name returns the source identifier.
func (t *TracefsSource) Name() string {
	return fmt.Sprintf("timerlat:%s", t.dir)
}

// Start applies the session config and enables tracing.
func (t *TracefsSource) Start(cfg Config) error {
	knobs := []struct {
		file  string
		value string
		set   bool
	}{
		{"osnoise/cpus", cfg.CPUs, cfg.CPUs != ""},
		{"osnoise/stop_tracing_us", strconv.FormatInt(cfg.StopIRQUs, 10), cfg.StopIRQUs != 0},
		{"osnoise/stop_tracing_total_us", strconv.FormatInt(cfg.StopTotalUs, 10), cfg.StopTotalUs != 0},
		{"osnoise/print_stack", strconv.FormatInt(cfg.StackUs, 10), cfg.StackUs != 0},
		{"osnoise/timerlat_period_us", strconv.FormatInt(cfg.PeriodUs, 10), cfg.PeriodUs != 0},
	}
	for _, k := range knobs {
		if !k.set {
			continue
		}
		if err := t.write(k.file, k.value); err != nil {
			return fmt.Errorf("tracer: apply %s: %w", k.file, err)
		}
	}

	if err := t.write("current_tracer", "timerlat"); err != nil {
		return fmt.Errorf("tracer: enable timerlat: %w", err)
	}
	if err := t.write("tracing_on", "1"); err != nil {
		return fmt.Errorf("tracer: start tracing: %w", err)
	}
	return nil
}

// Poll reads all buffered events, clears the buffer, and returns the
// parsed samples in arrival order.
func (t *TracefsSource) Poll(ctx context.Context) ([]Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(t.dir, "trace")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracer: read trace buffer: %w", err)
	}
	samples, perr := parseTrace(f)
	f.Close()
	if perr != nil {
		return nil, fmt.Errorf("tracer: parse trace buffer: %w", perr)
	}

	// Writing an empty string resets the ring buffer, so the next poll
	// only sees new events.
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, fmt.Errorf("tracer: clear trace buffer: %w", err)
	}
	return samples, nil
}

// Active reports whether the tracer is still recording. The timerlat
// tracer flips tracing_on to 0 on its own when a stop threshold is hit.
func (t *TracefsSource) Active() bool {
	raw, err := os.ReadFile(filepath.Join(t.dir, "tracing_on"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(raw)) == "1"
}

// Save copies the snapshot buffer (or the main buffer if no snapshot
// exists) to path, preserving the last trace window for offline analysis.
func (t *TracefsSource) Save(path string) error {
	src := filepath.Join(t.dir, "snapshot")
	in, err := os.Open(src)
	if err != nil {
		src = filepath.Join(t.dir, "trace")
		in, err = os.Open(src)
		if err != nil {
			return fmt.Errorf("tracer: open trace for saving: %w", err)
		}
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tracer: create %s: %w", path, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("tracer: save trace to %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("tracer: save trace to %s: %w", path, err)
	}
	return nil
}

// Close disables tracing and restores the nop tracer.
func (t *TracefsSource) Close() error {
	if err := t.write("tracing_on", "0"); err != nil {
		return fmt.Errorf("tracer: stop tracing: %w", err)
	}
	if err := t.write("current_tracer", "nop"); err != nil {
		return fmt.Errorf("tracer: reset tracer: %w", err)
	}
	return nil
}

func (t *TracefsSource) write(file, value string) error {
	return os.WriteFile(filepath.Join(t.dir, file), []byte(value), 0o644)
}
