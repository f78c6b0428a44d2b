package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rtkit/timertop/internal/monitor"
	"github.com/rtkit/timertop/internal/render"
	"github.com/rtkit/timertop/internal/stats"
)

// Run drives the monitor loop behind an interactive dashboard. It blocks
// until the loop finishes or the user quits, then prints the final table
// to stdout so a summary survives leaving the alternate screen.
func Run(ctx context.Context, cfg monitor.Config) (monitor.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Stop == nil {
		cfg.Stop = &monitor.StopController{}
	}
	if cfg.Divisor == 0 {
		cfg.Divisor = 1000
	}

	model := NewModel(cfg.Source.Name(), cfg.Divisor, cfg.Monitored, cfg.Stop)
	program := tea.NewProgram(model, tea.WithAltScreen())

	// The loop renders into the dashboard, not the terminal.
	var mu sync.Mutex
	var lastSnap []stats.CPUStats
	var lastElapsed time.Duration

	cfg.Out = io.Discard
	cfg.Quiet = false
	cfg.Clear = false
	cfg.OnSnapshot = func(snap []stats.CPUStats, elapsed time.Duration) {
		mu.Lock()
		lastSnap, lastElapsed = snap, elapsed
		mu.Unlock()
		program.Send(SnapshotMsg{Snap: snap, Elapsed: elapsed})
	}

	var res monitor.Result
	var runErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, runErr = monitor.Run(ctx, cfg)
		program.Send(DoneMsg{Err: runErr})
	}()

	_, uiErr := program.Run()

	// Either the user quit the dashboard or the loop is already done;
	// make sure the loop winds down before reading the result.
	cfg.Stop.RequestStop()
	wg.Wait()

	if uiErr != nil {
		return res, fmt.Errorf("tui: %w", uiErr)
	}

	mu.Lock()
	snap, elapsed := lastSnap, lastElapsed
	mu.Unlock()
	if snap != nil {
		r := &render.Renderer{Out: os.Stdout, Divisor: cfg.Divisor, Monitored: cfg.Monitored}
		_ = r.Render(snap, elapsed)
	}
	if res.Reason == monitor.ReasonTracerOff {
		fmt.Println("timertop hit stop tracing")
	}

	return res, runErr
}
