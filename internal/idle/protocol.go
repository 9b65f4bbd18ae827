package idle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// reasonSuffixes are the label suffixes that carry an idle reason on the wire
var reasonSuffixes = []Reason{ReasonIgnored, ReasonAgentIdle}

// FormatLine renders a classification as "<status>:<pid>:<label>". Idle
// reasons are appended to the label in parentheses. Control characters in
// the label become '?'. A reasonless idle label that already ends in a
// reason suffix has that suffix bracketed ("x(ignored)" is sent as
// "x[ignored]") so it is not read back as a reason.
func FormatLine(c Classification) string {
	label := SanitizeLabel(c.Label)
	if c.Status == StatusIdle {
		if c.Reason != ReasonNone {
			label = fmt.Sprintf("%s(%s)", label, c.Reason)
		} else if reason, ok := reasonSuffix(label); ok {
			label = strings.TrimSuffix(label, "("+string(reason)+")") + "[" + string(reason) + "]"
		}
	}
	return fmt.Sprintf("%s:%d:%s", c.Status, c.PID, label)
}

func reasonSuffix(label string) (Reason, bool) {
	for _, reason := range reasonSuffixes {
		if strings.HasSuffix(label, "("+string(reason)+")") {
			return reason, true
		}
	}
	return ReasonNone, false
}

// WriteLines writes one line per classification.
func WriteLines(w io.Writer, classifications []Classification) error {
	for _, c := range classifications {
		if _, err := fmt.Fprintln(w, FormatLine(c)); err != nil {
			return err
		}
	}
	return nil
}

// ParseLine parses one protocol line. ok is false for empty lines and lines
// with fewer than three fields.
func ParseLine(line string) (Classification, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Classification{}, false
	}

	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 3 {
		return Classification{}, false
	}

	var status Status
	switch Status(parts[0]) {
	case StatusIdle:
		status = StatusIdle
	case StatusActive:
		status = StatusActive
	default:
		return Classification{}, false
	}

	pid, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return Classification{}, false
	}

	c := Classification{PID: int32(pid), Status: status, Label: SanitizeLabel(strings.TrimSpace(parts[2]))}
	if status == StatusIdle {
		if reason, ok := reasonSuffix(c.Label); ok {
			c.Label = strings.TrimSuffix(c.Label, "("+string(reason)+")")
			c.Reason = reason
		}
	}
	return c, true
}

// ParseLines parses protocol output, skipping malformed lines individually.
func ParseLines(r io.Reader) ([]Classification, error) {
	var out []Classification
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if c, ok := ParseLine(scanner.Text()); ok {
			out = append(out, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("read probe output: %w", err)
	}
	return out, nil
}
