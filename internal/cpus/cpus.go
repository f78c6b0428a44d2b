// Package cpus parses cpu-list strings ("0-3,7") into index sets.
package cpus

import (
	"fmt"
	"strconv"
	"strings"
)

// Set is a set of CPU indices. The zero value is the empty set, which
// Contains treats as "all CPUs" so an unset -c flag monitors everything.
type Set struct {
	members map[int]struct{}
}

// Parse builds a Set from a comma-separated list of indices and ranges,
// e.g. "0-3,7" or "1,2,5-8". Whitespace around items is ignored.
func Parse(list string) (*Set, error) {
	s := &Set{members: make(map[int]struct{})}

	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("cpus: empty item in list %q", list)
		}

		lo, hi, found := strings.Cut(item, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 0 {
			return nil, fmt.Errorf("cpus: invalid cpu %q in list %q", item, list)
		}
		end := start
		if found {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("cpus: invalid range %q in list %q", item, list)
			}
		}

		for cpu := start; cpu <= end; cpu++ {
			s.members[cpu] = struct{}{}
		}
	}
	return s, nil
}

// Contains reports whether cpu is monitored. A nil or empty Set contains
// every CPU.
func (s *Set) Contains(cpu int) bool {
	if s == nil || len(s.members) == 0 {
		return true
	}
	_, ok := s.members[cpu]
	return ok
}

// Len returns the number of explicit members, 0 for the all-CPUs set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}
