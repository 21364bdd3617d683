package slurm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"days and time", "1-00:30:00", 90000},
		{"hours minutes seconds", "00:30:00", 1800},
		{"minutes seconds", "30:00", 1800},
		{"bare seconds", "45", 45},
		{"two days", "2-01:02:03", 2*86400 + 3723},
		{"zero", "0:00", 0},
		{"whitespace", "  10:00  ", 600},
		{"empty", "", DurationUnknown},
		{"not applicable", "N/A", DurationUnknown},
		{"unlimited", "UNLIMITED", DurationUnknown},
		{"invalid sentinel", "INVALID", DurationUnknown},
		{"malformed sub-token counts as zero", "xx:30", 30},
		{"malformed day prefix", "x-00:10:00", 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.in))
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name    string
		elapsed string
		limit   string
		want    int
	}{
		{"half", "00:30:00", "01:00:00", 50},
		{"overrun clamps to 100", "02:00:00", "01:00:00", 100},
		{"exact limit", "01:00:00", "01:00:00", 100},
		{"unlimited limit", "00:30:00", "UNLIMITED", ProgressUnknown},
		{"unknown elapsed", "N/A", "01:00:00", ProgressUnknown},
		{"zero limit", "00:10:00", "0:00", ProgressUnknown},
		{"rounding", "00:20:00", "01:00:00", 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.elapsed, tt.limit))
		})
	}
}
