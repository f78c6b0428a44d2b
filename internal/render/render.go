// Package render formats a per-CPU stats snapshot as a terminal table.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rtkit/timertop/internal/cpus"
	"github.com/rtkit/timertop/internal/stats"
)

// clearScreen resets the terminal so each refresh overwrites the last.
const clearScreen = "\033c"

var (
	titleStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("7")).
			Background(lipgloss.Color("0"))

	columnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("7"))
)

// Renderer writes stats snapshots to an output sink. It never mutates the
// snapshot it is given.
type Renderer struct {
	Out       io.Writer
	Divisor   uint64    // 1 = nanoseconds, 1000 = microseconds
	Clear     bool      // emit a screen clear before the header
	Styled    bool      // use ANSI styling for the header bands
	Monitored *cpus.Set // nil = render every CPU
}

// Render writes one snapshot table: a title band, a duration/unit line, a
// column band, and one row per CPU that has samples. A zero divisor is a
// configuration error and renders nothing.
func (r *Renderer) Render(snap []stats.CPUStats, elapsed time.Duration) error {
	if r.Divisor == 0 {
		return nil
	}

	var b strings.Builder
	if r.Clear {
		b.WriteString(clearScreen)
	}
	r.header(&b, elapsed)
	for cpu := range snap {
		if !r.Monitored.Contains(cpu) {
			continue
		}
		r.row(&b, cpu, &snap[cpu])
	}

	_, err := io.WriteString(r.Out, b.String())
	return err
}

func (r *Renderer) header(b *strings.Builder, elapsed time.Duration) {
	unit := "us"
	if r.Divisor == 1 {
		unit = "ns"
	}

	title := "                                     Timer Latency                                              "
	columns := "CPU COUNT      |      cur       min       avg       max |      cur       min       avg       max"
	if r.Styled {
		title = titleStyle.Render(title)
		columns = columnStyle.Render(columns)
	}

	b.WriteString(title)
	b.WriteByte('\n')
	fmt.Fprintf(b, "%-8s |          IRQ Timer Latency (%s)        |         Thread Timer Latency (%s)\n",
		formatElapsed(elapsed), unit, unit)
	b.WriteString(columns)
	b.WriteByte('\n')
}

func (r *Renderer) row(b *strings.Builder, cpu int, c *stats.CPUStats) {
	if c.Idle() {
		return
	}

	// Unless trace is being lost, the IRQ count is the higher of the two.
	fmt.Fprintf(b, "%3d #%-9d |", cpu, c.IRQ.Count)

	if c.IRQ.Count == 0 {
		b.WriteString("        -         -         -         - |")
	} else {
		fmt.Fprintf(b, "%9d %9d %9d %9d |",
			c.IRQ.Cur/r.Divisor,
			c.IRQ.Min/r.Divisor,
			c.IRQ.Avg()/r.Divisor,
			c.IRQ.Max/r.Divisor)
	}

	if c.Thread.Count == 0 {
		b.WriteString("        -         -         -         -\n")
	} else {
		fmt.Fprintf(b, "%9d %9d %9d %9d\n",
			c.Thread.Cur/r.Divisor,
			c.Thread.Min/r.Divisor,
			c.Thread.Avg()/r.Divisor,
			c.Thread.Max/r.Divisor)
	}
}

// formatElapsed renders a wall-clock duration as H:MM:SS.
func formatElapsed(d time.Duration) string {
	s := int64(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
