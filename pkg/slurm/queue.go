package slurm

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const squeueFormat = "%i|%j|%t|%M|%P|%N|%l|%S"

const activeFieldCount = 8

// FetchActive returns the current active-job snapshot, fully enriched.
//
// Base records are parsed from squeue first; only then does the client
// fan out one detail fetch per job plus a single node-local GPU
// telemetry probe. Per-job fetch failures are isolated: a failing job
// keeps N/A defaults while the rest of the snapshot proceeds. Telemetry
// is applied only after every enrichment call has completed, and only
// to jobs observed RUNNING.
//
// A total squeue failure returns an empty snapshot and a nil error so
// hosts without scheduler tooling degrade gracefully.
func (c *Client) FetchActive(ctx context.Context) ([]JobRecord, error) {
	out, err := c.runner.Run(ctx, c.commands.Squeue, "--me", "--noheader", "-o", squeueFormat)
	if err != nil {
		c.log.Warn("squeue unavailable, returning empty job set", zap.Error(err))
		return nil, nil
	}

	jobs := parseActiveJobs(out)
	if len(jobs) == 0 {
		return jobs, nil
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.concurrency)
	for i := range jobs {
		wg.Add(1)
		go func(job *JobRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			c.enrichJob(ctx, job)
		}(&jobs[i])
	}

	// Telemetry reflects whichever node this probe ran on, not
	// necessarily the job's own node; it is applied to RUNNING jobs
	// only, matching the approximation the display layer expects.
	var gpu *NodeGPUInfo
	wg.Add(1)
	go func() {
		defer wg.Done()
		gpu = c.fetchNodeGPU(ctx)
	}()

	wg.Wait()

	if gpu != nil {
		for i := range jobs {
			if jobs[i].State == StateRunning {
				jobs[i].GPUName = gpu.Name
				jobs[i].GPUMemory = gpu.TotalMemory
			}
		}
	}

	return jobs, nil
}

// parseActiveJobs splits pipe-delimited squeue output into base
// records. Lines with fewer than eight fields are dropped, not
// reported: malformed output tolerance, not an error.
func parseActiveJobs(out string) []JobRecord {
	var jobs []JobRecord
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < activeFieldCount {
			continue
		}
		jobs = append(jobs, JobRecord{
			ID:        strings.TrimSpace(fields[0]),
			Name:      orNA(fields[1]),
			State:     ParseState(strings.TrimSpace(fields[2])),
			Elapsed:   orNA(fields[3]),
			Partition: orNA(fields[4]),
			Nodes:     orNA(fields[5]),
			TimeLimit: orNA(fields[6]),
			StartTime: orNA(fields[7]),
		})
	}
	return jobs
}

// enrichJob populates paths, GPU, and memory from scontrol detail
// output. Each enrichment writes only to its own record. Failure
// leaves the N/A defaults in place.
func (c *Client) enrichJob(ctx context.Context, job *JobRecord) {
	job.StdoutPath = "N/A"
	job.StderrPath = "N/A"
	job.WorkDir = "N/A"
	job.Command = "N/A"

	if err := c.waitForRateLimit(ctx); err != nil {
		return
	}

	out, err := c.runner.Run(ctx, c.commands.Scontrol, "show", "job", "-o", job.ID)
	if err != nil {
		c.log.Debug("job detail fetch failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
		return
	}

	detail := ExtractJobDetail(out)
	job.StdoutPath = ExpandPattern(detail.StdoutPath, job.ID, job.Name, job.Nodes)
	job.StderrPath = ExpandPattern(detail.StderrPath, job.ID, job.Name, job.Nodes)
	job.WorkDir = detail.WorkDir
	job.Command = detail.Command
	job.GPU = detail.GPU
	job.Memory = detail.Memory
}

// ResolvePaths fetches one job's detail blob and returns its expanded
// stdout/stderr paths. ok is false when the fetch failed or neither
// path resolved. Used for lazy resolution of history records.
func (c *Client) ResolvePaths(ctx context.Context, jobID, jobName, nodeList string) (stdout, stderr string, ok bool) {
	out, err := c.runner.Run(ctx, c.commands.Scontrol, "show", "job", "-o", jobID)
	if err != nil {
		c.log.Debug("path resolution failed",
			zap.String("job_id", jobID),
			zap.Error(err))
		return "", "", false
	}

	detail := ExtractJobDetail(out)
	stdout = ExpandPattern(detail.StdoutPath, jobID, jobName, nodeList)
	stderr = ExpandPattern(detail.StderrPath, jobID, jobName, nodeList)
	if stdout == "N/A" && stderr == "N/A" {
		return "", "", false
	}
	return stdout, stderr, true
}

// fetchNodeGPU samples GPU product name and total memory on the local
// node. Returns nil when no GPU tooling is present.
func (c *Client) fetchNodeGPU(ctx context.Context) *NodeGPUInfo {
	out, err := c.runner.Run(ctx, c.commands.NvidiaSMI,
		"--query-gpu=name,memory.total", "--format=csv,noheader")
	if err != nil {
		return nil
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	name, mem, ok := cutTrim(line, ",")
	if !ok || name == "" {
		return nil
	}
	return &NodeGPUInfo{Name: name, TotalMemory: mem}
}

func (c *Client) waitForRateLimit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func orNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "N/A"
	}
	return s
}

func cutTrim(s, sep string) (string, string, bool) {
	left, right, ok := strings.Cut(s, sep)
	return strings.TrimSpace(left), strings.TrimSpace(right), ok
}
