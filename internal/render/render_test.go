package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtkit/timertop/internal/cpus"
	"github.com/rtkit/timertop/internal/stats"
)

func sampleStore(t *testing.T) *stats.Store {
	t.Helper()
	s, err := stats.New(4)
	require.NoError(t, err)

	s.Record(0, false, 100)
	s.Record(0, false, 50)
	s.Record(0, true, 200)
	s.Record(2, true, 75000)
	return s
}

func TestRenderRows(t *testing.T) {
	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 1}

	err := r.Render(sampleStore(t).Snapshot(), 2*time.Second)
	require.NoError(t, err)
	text := out.String()

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 5, "header (3 lines) plus two cpu rows")

	assert.Contains(t, lines[0], "Timer Latency")
	assert.Contains(t, lines[1], "IRQ Timer Latency (ns)")
	assert.Contains(t, lines[1], "Thread Timer Latency (ns)")
	assert.Contains(t, lines[1], "0:00:02")
	assert.Contains(t, lines[2], "cur       min       avg       max")

	assert.Equal(t, "  0 #2         |       50        50        75       100 |      200       200       200       200", lines[3])
	assert.Equal(t, "  2 #0         |        -         -         -         - |    75000     75000     75000     75000", lines[4])
}

func TestRenderOmitsIdleCPUs(t *testing.T) {
	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 1}

	require.NoError(t, r.Render(sampleStore(t).Snapshot(), 0))

	assert.NotContains(t, out.String(), "\n  1 ")
	assert.NotContains(t, out.String(), "\n  3 ")
}

func TestRenderAllIdleShowsOnlyHeader(t *testing.T) {
	s, err := stats.New(8)
	require.NoError(t, err)

	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 1000}

	require.NoError(t, r.Render(s.Snapshot(), time.Minute))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "0:01:00")
}

func TestRenderDivisorScalesValues(t *testing.T) {
	s, err := stats.New(1)
	require.NoError(t, err)
	s.Record(0, false, 75000)

	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 1000}

	require.NoError(t, r.Render(s.Snapshot(), 0))

	assert.Contains(t, out.String(), "       75 ")
	assert.Contains(t, out.String(), "(us)")
	assert.NotContains(t, out.String(), "75000")
}

func TestRenderZeroDivisorIsNoOp(t *testing.T) {
	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 0}

	require.NoError(t, r.Render(sampleStore(t).Snapshot(), 0))
	assert.Empty(t, out.String())
}

func TestRenderClearDirective(t *testing.T) {
	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 1, Clear: true}

	require.NoError(t, r.Render(sampleStore(t).Snapshot(), 0))
	assert.True(t, strings.HasPrefix(out.String(), "\033c"))

	out.Reset()
	r.Clear = false
	require.NoError(t, r.Render(sampleStore(t).Snapshot(), 0))
	assert.NotContains(t, out.String(), "\033c")
}

func TestRenderMonitoredFilter(t *testing.T) {
	set, err := cpus.Parse("2")
	require.NoError(t, err)

	var out strings.Builder
	r := &Renderer{Out: &out, Divisor: 1, Monitored: set}

	require.NoError(t, r.Render(sampleStore(t).Snapshot(), 0))

	assert.NotContains(t, out.String(), "  0 #")
	assert.Contains(t, out.String(), "  2 #")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0:00:00", formatElapsed(0))
	assert.Equal(t, "0:00:59", formatElapsed(59*time.Second))
	assert.Equal(t, "0:01:00", formatElapsed(time.Minute))
	assert.Equal(t, "2:03:04", formatElapsed(2*time.Hour+3*time.Minute+4*time.Second))
	assert.Equal(t, "26:00:00", formatElapsed(26*time.Hour))
}
