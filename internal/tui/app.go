// Package tui provides an interactive terminal dashboard for the monitor.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rtkit/timertop/internal/cpus"
	"github.com/rtkit/timertop/internal/monitor"
	"github.com/rtkit/timertop/internal/render"
	"github.com/rtkit/timertop/internal/stats"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#353533"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// --- Messages ---

// SnapshotMsg delivers a fresh stats snapshot to the dashboard.
type SnapshotMsg struct {
	Snap    []stats.CPUStats
	Elapsed time.Duration
}

// DoneMsg signals that the monitor loop has finished.
type DoneMsg struct {
	Err error
}

// --- Model ---

// Model is the bubbletea model for the dashboard.
type Model struct {
	snap    []stats.CPUStats
	elapsed time.Duration
	width   int
	height  int
	done    bool

	source    string
	divisor   uint64
	monitored *cpus.Set
	stop      *monitor.StopController
}

// NewModel creates the dashboard model. The stop controller is the same
// one the monitor loop polls; pressing q asks the loop to wind down.
func NewModel(source string, divisor uint64, monitored *cpus.Set, stop *monitor.StopController) Model {
	return Model{
		source:    source,
		divisor:   divisor,
		monitored: monitored,
		stop:      stop,
	}
}

// Init requests the initial window size.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.stop.RequestStop()
			return m, tea.Quit
		}
		return m, nil

	case SnapshotMsg:
		m.snap = msg.Snap
		m.elapsed = msg.Elapsed
		return m, nil

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sb strings.Builder

	title := titleStyle.Render(fmt.Sprintf(" timertop — %s ", m.source))
	status := "▶ TRACING"
	if m.done {
		status = stoppedStyle.Render("■ STOPPED")
	}
	statusText := statusBarStyle.Render(fmt.Sprintf(" %s  %s ", status, formatClock(m.elapsed)))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(statusText)
	if gap < 0 {
		gap = 0
	}
	sb.WriteString(title + statusBarStyle.Render(strings.Repeat(" ", gap)) + statusText)
	sb.WriteString("\n\n")

	r := &render.Renderer{
		Out:       &sb,
		Divisor:   m.divisor,
		Styled:    true,
		Monitored: m.monitored,
	}
	_ = r.Render(m.snap, m.elapsed)

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(" [q]Quit"))

	return sb.String()
}

func formatClock(d time.Duration) string {
	s := int64(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
