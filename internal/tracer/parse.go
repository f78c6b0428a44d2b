package tracer

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// parseTrace extracts timerlat samples from the tracer's text output.
//
// Event lines look like:
//
//	<idle>-0     [002] d.h1.  600.184305: #1  context    irq timer_latency      1966 ns
//	timerlat/2-671 [002] .....  600.184306: #1  context thread timer_latency    11064 ns
//
// Comment lines, stack dumps and any event without a timer_latency field
// are skipped. Malformed event lines are skipped rather than failing the
// whole window; the trace buffer can truncate a line at the wrap point.
func parseTrace(r io.Reader) ([]Sample, error) {
	var samples []Sample

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		s, ok := parseLine(line)
		if !ok {
			continue
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func parseLine(line string) (Sample, bool) {
	fields := strings.Fields(line)

	cpu := -1
	threadCtx := false
	latency := uint64(0)
	haveCtx, haveLatency := false, false

	for i, f := range fields {
		switch {
		case cpu < 0 && len(f) >= 3 && f[0] == '[' && f[len(f)-1] == ']':
			n, err := strconv.Atoi(f[1 : len(f)-1])
			if err == nil && n >= 0 {
				cpu = n
			}
		case f == "context" && i+1 < len(fields):
			switch fields[i+1] {
			case "irq":
				threadCtx = false
				haveCtx = true
			case "thread":
				threadCtx = true
				haveCtx = true
			}
		case f == "timer_latency" && i+1 < len(fields):
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err == nil {
				latency = v
				haveLatency = true
			}
		}
	}

	if cpu < 0 || !haveCtx || !haveLatency {
		return Sample{}, false
	}
	return Sample{CPU: cpu, ThreadContext: threadCtx, Latency: latency}, true
}
