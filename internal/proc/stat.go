package proc

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseStat parses the content of /proc/<pid>/stat.
//
// Format: "pid (comm) state ppid pgrp session tty_nr tpgid ...". comm may
// contain spaces or parens, so the last closing paren ends it.
func ParseStat(stat string) (Process, error) {
	open := strings.Index(stat, "(")
	closing := strings.LastIndex(stat, ")")
	if open < 0 || closing < open {
		return Process{}, fmt.Errorf("malformed stat: missing comm")
	}

	pid, err := strconv.ParseInt(strings.TrimSpace(stat[:open]), 10, 32)
	if err != nil {
		return Process{}, fmt.Errorf("malformed stat pid: %w", err)
	}

	// rest starts at state: state=0 ppid=1 pgrp=2 session=3 tty_nr=4 tpgid=5
	fields := strings.Fields(stat[closing+1:])
	if len(fields) < 6 {
		return Process{}, fmt.Errorf("malformed stat: %d fields after comm", len(fields))
	}

	nums := make([]int32, 4)
	for i, idx := range []int{1, 2, 4, 5} {
		v, err := strconv.ParseInt(fields[idx], 10, 32)
		if err != nil {
			return Process{}, fmt.Errorf("malformed stat field %d: %w", idx, err)
		}
		nums[i] = int32(v)
	}

	return Process{
		PID:   int32(pid),
		Comm:  stat[open+1 : closing],
		PPID:  nums[0],
		PGRP:  nums[1],
		TTY:   nums[2],
		TPGID: nums[3],
	}, nil
}
