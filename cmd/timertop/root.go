package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rtkit/timertop/internal/cpus"
	"github.com/rtkit/timertop/internal/monitor"
	"github.com/rtkit/timertop/internal/sched"
	"github.com/rtkit/timertop/internal/tracer"
	"github.com/rtkit/timertop/internal/tui"
)

var (
	cpuList   string
	duration  time.Duration
	interval  time.Duration
	periodUs  int64
	irqUs     int64
	threadUs  int64
	stackUs   int64
	traceOut  string
	nano      bool
	quiet     bool
	priority  string
	useTUI    bool
	tracefsAt string

	rootCmd = &cobra.Command{
		Use:   "timertop",
		Short: "timertop shows a live per-cpu summary of timer latency",
		Long: `timertop drives the kernel timerlat tracer and shows a continuously
refreshed per-cpu table of timer latency statistics (count, cur, min, avg
and max for both IRQ and thread context). It stops on a duration expiry,
on ctrl-c, or when the tracer turns itself off after a latency threshold
is breached, in which case the last trace window can be saved.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&cpuList, "cpus", "c", "", "run the tracer only on the given cpus (e.g. 0-3,7)")
	f.DurationVarP(&duration, "duration", "d", 0, "duration of the session (e.g. 30s, 5m)")
	f.DurationVar(&interval, "interval", time.Second, "sleep between ingestion cycles")
	f.Int64VarP(&periodUs, "period", "p", 0, "timerlat period in us")
	f.Int64VarP(&irqUs, "irq", "i", 0, "stop tracing if an IRQ latency exceeds this many us")
	f.Int64VarP(&threadUs, "thread", "T", 0, "stop tracing if a thread latency exceeds this many us")
	f.Int64VarP(&stackUs, "stack", "s", 0, "dump the IRQ stack if a thread latency exceeds this many us")
	f.StringVarP(&traceOut, "trace", "t", "", "save the stopped trace to a file")
	f.Lookup("trace").NoOptDefVal = "timerlat_trace.txt"
	f.BoolVarP(&nano, "nano", "n", false, "display latencies in nanoseconds")
	f.BoolVarP(&quiet, "quiet", "q", false, "print only a summary at the end")
	f.StringVarP(&priority, "priority", "P", "", "set tracer thread scheduling (o:prio|r:prio|f:prio|d:runtime:period)")
	f.BoolVar(&useTUI, "tui", false, "show an interactive dashboard instead of plain refreshes")
	f.StringVar(&tracefsAt, "tracefs", tracer.DefaultTracefs, "tracing filesystem mount point")
}

func run(cmd *cobra.Command) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("timertop needs root to drive the timerlat tracer")
	}

	var monitored *cpus.Set
	if cpuList != "" {
		var err error
		monitored, err = cpus.Parse(cpuList)
		if err != nil {
			return err
		}
	}

	src, err := tracer.NewTracefs(tracefsAt)
	if err != nil {
		return err
	}

	if err := src.Start(tracer.Config{
		CPUs:        cpuList,
		PeriodUs:    periodUs,
		StopIRQUs:   irqUs,
		StopTotalUs: threadUs,
		StackUs:     stackUs,
	}); err != nil {
		return err
	}

	if priority != "" {
		attr, err := sched.Parse(priority)
		if err != nil {
			_ = src.Close()
			return err
		}
		if err := sched.SetForCommPrefix("timerlat/", attr); err != nil {
			_ = src.Close()
			return err
		}
	}

	divisor := uint64(1000)
	if nano {
		divisor = 1
	}

	stop := &monitor.StopController{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		// Only flip the flag here; the loop does the actual winding
		// down on its next cycle.
		stop.RequestStop()
	}()

	cfg := monitor.Config{
		Source:    src,
		Recorder:  src,
		Stop:      stop,
		NrCPUs:    runtime.NumCPU(),
		Monitored: monitored,
		Interval:  interval,
		Duration:  duration,
		Divisor:   divisor,
		Quiet:     quiet,
		Styled:    term.IsTerminal(int(os.Stdout.Fd())),
		Clear:     term.IsTerminal(int(os.Stdout.Fd())),
		Out:       os.Stdout,
		TracePath: traceOut,
	}

	if useTUI {
		_, err = tui.Run(cmd.Context(), cfg)
		return err
	}
	_, err = monitor.Run(cmd.Context(), cfg)
	return err
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
