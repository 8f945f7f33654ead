// Package duration parses free-form duration text such as "1d 2h 30m" and
// formats remaining time for display.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tokenRe = regexp.MustCompile(`(?i)(\d+)\s*(w|week|d|day|h|hour|hr|m|min|minute|s|sec|second)s?\b`)

var unitSeconds = map[string]int64{
	"w": 7 * 86400, "week": 7 * 86400,
	"d": 86400, "day": 86400,
	"h": 3600, "hour": 3600, "hr": 3600,
	"m": 60, "min": 60, "minute": 60,
	"s": 1, "sec": 1, "second": 1,
}

// Parse scans text for repeated <integer><unit> tokens and accumulates them
// into a total duration. Unknown tokens are ignored; unmatched or empty
// input yields zero, which callers must reject against their own minimum.
func Parse(text string) time.Duration {
	var total int64
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		total += value * unitSeconds[strings.ToLower(m[2])]
	}
	return time.Duration(total) * time.Second
}

// FormatRemaining renders a duration as a coarse human string, picking the
// two most significant units that apply.
func FormatRemaining(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	weeks := seconds / (7 * 86400)
	days := seconds / 86400
	hours := seconds / 3600
	minutes := (seconds % 3600 + 59) / 60
	if minutes == 60 {
		hours++
		minutes = 0
	}

	switch {
	case weeks > 0:
		return fmt.Sprintf("%d weeks %d days", weeks, days-weeks*7)
	case days > 0:
		return fmt.Sprintf("%d days %d hours", days, hours-days*24)
	case hours > 0:
		return fmt.Sprintf("%d hours %d minutes", hours, minutes)
	case minutes > 1:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return "less than a minute"
	}
}
