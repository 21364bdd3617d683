package slurm

import (
	"math"
	"strconv"
	"strings"
)

// DurationUnknown is the sentinel for durations that cannot be
// determined (empty, N/A, UNLIMITED, INVALID).
const DurationUnknown int64 = -1

// ProgressUnknown is the sentinel returned by Progress when either
// input duration is unknown.
const ProgressUnknown = -1

// ParseDuration converts a scheduler duration string to seconds.
//
// Accepted forms: "D-HH:MM:SS", "HH:MM:SS", "MM:SS", and bare seconds.
// Sub-tokens that fail to parse count as zero; the whole-string
// sentinels return DurationUnknown.
func ParseDuration(text string) int64 {
	s := strings.TrimSpace(text)
	switch s {
	case "", "N/A", "UNLIMITED", "INVALID":
		return DurationUnknown
	}

	var days int64
	if i := strings.IndexByte(s, '-'); i >= 0 {
		days = softInt(s[:i])
		s = s[i+1:]
	}

	parts := strings.Split(s, ":")
	var hours, minutes, seconds int64
	switch len(parts) {
	case 3:
		hours = softInt(parts[0])
		minutes = softInt(parts[1])
		seconds = softInt(parts[2])
	case 2:
		minutes = softInt(parts[0])
		seconds = softInt(parts[1])
	case 1:
		seconds = softInt(parts[0])
	default:
		return DurationUnknown
	}

	return days*86400 + hours*3600 + minutes*60 + seconds
}

// Progress returns the elapsed/limit ratio as a whole percentage,
// clamped to 100. Elapsed can briefly exceed the limit before the
// scheduler kills the job; that must never be reported above 100.
func Progress(elapsed, limit string) int {
	e := ParseDuration(elapsed)
	l := ParseDuration(limit)
	if e == DurationUnknown || l == DurationUnknown || l <= 0 {
		return ProgressUnknown
	}
	pct := int(math.Round(100 * float64(e) / float64(l)))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// softInt parses a numeric token, treating failures as zero so a
// single malformed group never discards the rest of the duration.
func softInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
