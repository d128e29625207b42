// Package duration provides parsing for human-readable duration strings.
//
// Timeouts are written in Go's own format ("50ms", "2s"), while retention
// style values read better as "7d" (days), "4w" (weeks) or "3m" (months).
// Parse accepts both so every duration in config and on the command line
// goes through one function.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var long = regexp.MustCompile(`^(\d+)([dwm])$`)

// Parse parses "Nd" (days), "Nw" (weeks), "Nm" (months of 30 days) or any
// string accepted by time.ParseDuration. Negative durations are rejected.
func Parse(s string) (time.Duration, error) {
	if matches := long.FindStringSubmatch(s); matches != nil {
		num, err := strconv.Atoi(matches[1])
		if err != nil {
			// Regex ensures digits only, but handle error for correctness
			return 0, fmt.Errorf("invalid number: %w", err)
		}
		switch matches[2] {
		case "d":
			return time.Duration(num) * 24 * time.Hour, nil
		case "w":
			return time.Duration(num) * 7 * 24 * time.Hour, nil
		default:
			return time.Duration(num) * 30 * 24 * time.Hour, nil
		}
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use 50ms, 2s, 7d, 4w or 3m)", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration: %s is negative", s)
	}
	return d, nil
}
