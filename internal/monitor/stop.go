package monitor

import "sync/atomic"

// StopController is the cooperative cancellation token for the monitor
// loop. RequestStop may be called from a signal handler or timer goroutine
// at any point; it does nothing beyond an atomic flag write, so it can
// never observe or corrupt loop state. The loop reads the flag once per
// cycle via ShouldStop.
type StopController struct {
	stop atomic.Bool
}

// RequestStop asks the loop to wind down. Idempotent.
func (s *StopController) RequestStop() {
	s.stop.Store(true)
}

// ShouldStop reports whether a stop has been requested.
func (s *StopController) ShouldStop() bool {
	return s.stop.Load()
}
