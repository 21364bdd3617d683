package slurm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

var (
	submittedRe = regexp.MustCompile(`Submitted batch job (\d+)`)
	arrayTaskRe = regexp.MustCompile(`ArrayTaskId=(\d+)-(\d+)`)
	arraySingle = regexp.MustCompile(`ArrayTaskId=(\d+)(?:\s|$|%)`)
)

// CancelTasks issues one scancel per identifier and collects per-id
// results. One failure does not stop the rest, and completed
// cancellations are never rolled back.
func (c *Client) CancelTasks(ctx context.Context, ids []string) []CancelResult {
	results := make([]CancelResult, 0, len(ids))
	for _, id := range ids {
		_, err := c.runner.Run(ctx, c.commands.Scancel, id)
		if err != nil {
			err = fmt.Errorf("cancel %s: %w", id, err)
			c.log.Warn("cancel failed", zap.String("job_id", id), zap.Error(err))
		}
		results = append(results, CancelResult{ID: id, Err: err})
	}
	return results
}

// Submit submits a batch script via sbatch and returns the new job id.
func (c *Client) Submit(ctx context.Context, scriptPath string) (string, error) {
	out, err := c.runner.Run(ctx, c.commands.Sbatch, scriptPath)
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", scriptPath, err)
	}
	m := submittedRe.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("submit %s: unexpected sbatch output %q", scriptPath, out)
	}
	return m[1], nil
}

// ArrayBounds reads the declared task-index range of a job array from
// scontrol. Single-task declarations collapse to low == high.
func (c *Client) ArrayBounds(ctx context.Context, baseID string) (low, high int, err error) {
	out, err := c.runner.Run(ctx, c.commands.Scontrol, "show", "job", "-o", baseID)
	if err != nil {
		return 0, 0, fmt.Errorf("array bounds for %s: %w", baseID, err)
	}

	if m := arrayTaskRe.FindStringSubmatch(out); m != nil {
		low, _ = strconv.Atoi(m[1])
		high, _ = strconv.Atoi(m[2])
		return low, high, nil
	}
	if m := arraySingle.FindStringSubmatch(out); m != nil {
		low, _ = strconv.Atoi(m[1])
		return low, low, nil
	}
	return 0, 0, fmt.Errorf("job %s has no array task range", baseID)
}
