package slurm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// JobDetail holds fields extracted from one `scontrol show job` blob.
// String fields default to "N/A" when the key is absent; GPU and
// Memory stay absent (nil / empty) rather than zero so callers can
// tell "not present" from "zero".
type JobDetail struct {
	StdoutPath string
	StderrPath string
	Command    string
	WorkDir    string
	GPU        *GPUAlloc
	Memory     string
}

var (
	stdoutRe  = regexp.MustCompile(`StdOut=(\S+)`)
	stderrRe  = regexp.MustCompile(`StdErr=(\S+)`)
	commandRe = regexp.MustCompile(`Command=(\S+)`)
	workDirRe = regexp.MustCompile(`WorkDir=(\S+)`)

	memoryRe = regexp.MustCompile(`AllocTRES=\S*\bmem=(\d+)([KMGT]?)`)
)

// gpuStrategy is one fallback step of GPU extraction: a pure function
// from the raw detail blob to an optional allocation. Strategies are
// tried in order and the first success wins, which keeps the fallback
// order an explicit, testable structure.
type gpuStrategy struct {
	name    string
	extract func(raw string) (*GPUAlloc, bool)
}

var gpuStrategies = []gpuStrategy{
	{"tres-per-node", extractTresPerNode},
	{"alloc-tres-typed", extractAllocTresTyped},
	{"alloc-tres-count", extractAllocTresCount},
	{"legacy-gres", extractLegacyGres},
}

var (
	tresPerNodeRe    = regexp.MustCompile(`TresPerNode=\S*gres/gpu:([^:=,\s]+):(\d+)`)
	allocTresTypedRe = regexp.MustCompile(`AllocTRES=\S*gres/gpu:([^:=,\s]+)=(\d+)`)
	allocTresCountRe = regexp.MustCompile(`AllocTRES=\S*gres/gpu=(\d+)`)
	legacyGresRe     = regexp.MustCompile(`Gres=(\S+)`)
	legacyGresVal    = regexp.MustCompile(`gpu:(?:([^:,\s]+):)?(\d+)`)
)

// ExtractJobDetail pulls the display-relevant fields out of one
// free-text key=value detail blob. Every field is extracted
// independently; a missing key never aborts the rest.
func ExtractJobDetail(raw string) JobDetail {
	d := JobDetail{
		StdoutPath: extractField(stdoutRe, raw),
		StderrPath: extractField(stderrRe, raw),
		Command:    extractField(commandRe, raw),
		WorkDir:    extractField(workDirRe, raw),
		Memory:     extractMemory(raw),
	}

	for _, s := range gpuStrategies {
		if gpu, ok := s.extract(raw); ok {
			d.GPU = gpu
			break
		}
	}
	return d
}

func extractField(re *regexp.Regexp, raw string) string {
	if m := re.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return "N/A"
}

func extractTresPerNode(raw string) (*GPUAlloc, bool) {
	m := tresPerNodeRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return &GPUAlloc{Type: m[1], Count: mustCount(m[2])}, true
}

func extractAllocTresTyped(raw string) (*GPUAlloc, bool) {
	m := allocTresTypedRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return &GPUAlloc{Type: m[1], Count: mustCount(m[2])}, true
}

func extractAllocTresCount(raw string) (*GPUAlloc, bool) {
	m := allocTresCountRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return &GPUAlloc{Count: mustCount(m[1])}, true
}

// extractLegacyGres handles the pre-TRES Gres= field, which encodes
// either "gpu:<type>:<count>" or "gpu:<count>". A literal "(null)"
// means no GPU was allocated.
func extractLegacyGres(raw string) (*GPUAlloc, bool) {
	m := legacyGresRe.FindStringSubmatch(raw)
	if m == nil || m[1] == "(null)" {
		return nil, false
	}
	v := legacyGresVal.FindStringSubmatch(m[1])
	if v == nil {
		return nil, false
	}
	return &GPUAlloc{Type: v[1], Count: mustCount(v[2])}, true
}

// extractMemory reads the allocated memory from AllocTRES. Values of
// 1000M and above are reported in gigabytes; everything else keeps
// its reported unit (default M).
func extractMemory(raw string) string {
	m := memoryRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ""
	}
	unit := m[2]
	if unit == "" {
		unit = "M"
	}
	if unit == "M" && value >= 1000 {
		return fmt.Sprintf("%dG", int64(math.Round(float64(value)/1000)))
	}
	return fmt.Sprintf("%d%s", value, unit)
}

func mustCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
