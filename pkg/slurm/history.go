package slurm

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const sacctFields = "JobID,JobName,State,ExitCode,Start,End,Elapsed,Partition,NodeList,AllocCPUS,MaxRSS"

const historyMinFields = 9

// sacct reports local timestamps without a zone suffix.
const sacctTimeLayout = "2006-01-02T15:04:05"

// FetchHistory returns terminal jobs from accounting history, newest
// first. Job steps (IDs containing ".") and jobs still RUNNING or
// PENDING are excluded: this snapshot only holds finished work.
//
// A total sacct failure returns an empty slice and a nil error.
func (c *Client) FetchHistory(ctx context.Context, since time.Duration) ([]HistoryRecord, error) {
	args := []string{"--noheader", "-P", "-X", "-o", sacctFields}
	if since > 0 {
		start := time.Now().Add(-since).Format(sacctTimeLayout)
		args = append(args, "-S", start)
	}

	out, err := c.runner.Run(ctx, c.commands.Sacct, args...)
	if err != nil {
		c.log.Warn("sacct unavailable, returning empty history", zap.Error(err))
		return nil, nil
	}

	records := parseHistory(out)
	sort.SliceStable(records, func(i, j int) bool {
		ti, iok := records[i].EndTime()
		tj, jok := records[j].EndTime()
		if iok != jok {
			return iok // records with an end time sort before those without
		}
		return ti.After(tj)
	})
	return records, nil
}

func parseHistory(out string) []HistoryRecord {
	var records []HistoryRecord
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < historyMinFields {
			continue
		}

		id := strings.TrimSpace(fields[0])
		if strings.Contains(id, ".") {
			// Job steps ("12345.batch", "12345.0") are sub-units of
			// a job, not jobs themselves.
			continue
		}

		state := normalizeHistoryState(fields[2])
		if state == "RUNNING" || state == "PENDING" {
			continue
		}

		rec := HistoryRecord{
			ID:        id,
			Name:      orNA(fields[1]),
			State:     state,
			ExitCode:  parseExitCode(fields[3]),
			Start:     orNA(fields[4]),
			End:       orNA(fields[5]),
			Elapsed:   orNA(fields[6]),
			Partition: orNA(fields[7]),
			Nodes:     orNA(fields[8]),
		}
		if len(fields) > 9 {
			rec.CPUs = strings.TrimSpace(fields[9])
		}
		if len(fields) > 10 {
			rec.MaxRSS = strings.TrimSpace(fields[10])
		}
		if t, err := time.ParseInLocation(sacctTimeLayout, rec.End, time.Local); err == nil {
			rec.endTime = &t
		}
		records = append(records, rec)
	}
	return records
}

// normalizeHistoryState strips qualifier text such as
// "CANCELLED by 1234" down to the bare state word.
func normalizeHistoryState(raw string) string {
	state := strings.TrimSpace(raw)
	if i := strings.IndexByte(state, ' '); i >= 0 {
		state = state[:i]
	}
	return state
}

// parseExitCode takes the integer before the first ":" of sacct's
// "code:signal" exit field, defaulting to 0 when it cannot be parsed.
func parseExitCode(raw string) int {
	code, _, _ := strings.Cut(strings.TrimSpace(raw), ":")
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}
