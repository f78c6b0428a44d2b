// Package sched applies scheduling parameters to the tracer's measurement
// threads, so the monitored workload runs under the intended policy.
package sched

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Policy is a Linux scheduling policy.
type Policy int

const (
	Other Policy = iota
	FIFO
	RR
	Deadline
)

// Attr holds the parameters for one policy. Priority is the nice value
// for Other and the real-time priority for FIFO/RR. Runtime and Period
// are nanoseconds and only meaningful for Deadline.
type Attr struct {
	Policy   Policy
	Priority int
	Runtime  uint64
	Period   uint64
}

// Parse reads a priority spec in the form
//
//	o:prio | r:prio | f:prio | d:runtime:period
//
// where deadline runtime and period accept ns (default), us, ms or s
// suffixes.
func Parse(spec string) (Attr, error) {
	kind, rest, found := strings.Cut(spec, ":")
	if !found || kind == "" || rest == "" {
		return Attr{}, fmt.Errorf("sched: invalid priority %q", spec)
	}

	switch kind {
	case "o", "r", "f":
		prio, err := strconv.Atoi(rest)
		if err != nil {
			return Attr{}, fmt.Errorf("sched: invalid priority %q", spec)
		}
		switch kind {
		case "o":
			return Attr{Policy: Other, Priority: prio}, nil
		case "r":
			return Attr{Policy: RR, Priority: prio}, nil
		default:
			return Attr{Policy: FIFO, Priority: prio}, nil
		}
	case "d":
		runtime, period, found := strings.Cut(rest, ":")
		if !found {
			return Attr{}, fmt.Errorf("sched: deadline needs runtime and period in %q", spec)
		}
		r, err := parseNs(runtime)
		if err != nil {
			return Attr{}, fmt.Errorf("sched: invalid runtime in %q: %w", spec, err)
		}
		p, err := parseNs(period)
		if err != nil {
			return Attr{}, fmt.Errorf("sched: invalid period in %q: %w", spec, err)
		}
		if r == 0 || p < r {
			return Attr{}, fmt.Errorf("sched: deadline runtime must fit in the period in %q", spec)
		}
		return Attr{Policy: Deadline, Runtime: r, Period: p}, nil
	default:
		return Attr{}, fmt.Errorf("sched: unknown policy %q in %q", kind, spec)
	}
}

// parseNs converts "100", "100us", "2ms" or "1s" to nanoseconds.
func parseNs(s string) (uint64, error) {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "us"):
		mult, s = 1000, strings.TrimSuffix(s, "us")
	case strings.HasSuffix(s, "ms"):
		mult, s = 1000*1000, strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "ns"):
		s = strings.TrimSuffix(s, "ns")
	case strings.HasSuffix(s, "s"):
		mult, s = 1000*1000*1000, strings.TrimSuffix(s, "s")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return v * mult, nil
}

// SetForCommPrefix applies attr to every process whose comm starts with
// prefix, e.g. "timerlat/" for the tracer's per-CPU measurement threads.
func SetForCommPrefix(prefix string, attr Attr) error {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return fmt.Errorf("sched: read /proc: %w", err)
	}

	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			// Process exited between the listing and the read.
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(string(comm)), prefix) {
			continue
		}
		if err := setattr(pid, attr); err != nil {
			return fmt.Errorf("sched: pid %d: %w", pid, err)
		}
	}
	return nil
}

func setattr(pid int, attr Attr) error {
	sa := &unix.SchedAttr{Size: unix.SizeofSchedAttr}
	switch attr.Policy {
	case Other:
		sa.Policy = unix.SCHED_NORMAL
		sa.Nice = int32(attr.Priority)
	case FIFO:
		sa.Policy = unix.SCHED_FIFO
		sa.Priority = uint32(attr.Priority)
	case RR:
		sa.Policy = unix.SCHED_RR
		sa.Priority = uint32(attr.Priority)
	case Deadline:
		sa.Policy = unix.SCHED_DEADLINE
		sa.Runtime = attr.Runtime
		sa.Deadline = attr.Period
		sa.Period = attr.Period
	}
	return unix.SchedSetAttr(pid, sa, 0)
}
