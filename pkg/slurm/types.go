package slurm

import "time"

// GPUAlloc is a job's GPU allocation as reported by the scheduler.
// A nil *GPUAlloc means no GPU information was present, which is
// distinct from an allocation of zero.
type GPUAlloc struct {
	Count int    `json:"count"`
	Type  string `json:"type,omitempty"`
}

// JobRecord is one active job, fully enriched. Records are value
// objects built fresh on every refresh and safe to copy.
type JobRecord struct {
	// ID may carry an array-index suffix after "_", e.g. "12345_7".
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	State     JobState `json:"state"`
	Elapsed   string   `json:"elapsed"`
	TimeLimit string   `json:"time_limit"`
	Partition string   `json:"partition"`
	Nodes     string   `json:"nodes"`
	StartTime string   `json:"start_time"`

	StdoutPath string `json:"stdout_path"`
	StderrPath string `json:"stderr_path"`
	WorkDir    string `json:"work_dir"`

	// Command is the submission script path as reported by scontrol.
	Command string `json:"command"`

	GPU    *GPUAlloc `json:"gpu,omitempty"`
	Memory string    `json:"memory,omitempty"`

	// GPUName and GPUMemory come from node-local telemetry and are
	// only applied to jobs observed in the RUNNING state.
	GPUName   string `json:"gpu_name,omitempty"`
	GPUMemory string `json:"gpu_memory,omitempty"`

	// ScriptPath is the archived copy of the submission script, when
	// the script cache holds one.
	ScriptPath string `json:"script_path,omitempty"`

	Pinned bool `json:"pinned,omitempty"`
}

// Progress returns the elapsed/limit percentage for the job, or
// ProgressUnknown when either duration cannot be determined.
func (j *JobRecord) Progress() int {
	return Progress(j.Elapsed, j.TimeLimit)
}

// HistoryRecord is one terminal job from accounting history. Job steps
// (IDs containing ".") and still-active jobs are excluded at parse time.
type HistoryRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	ExitCode int    `json:"exit_code"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Elapsed  string `json:"elapsed"`

	Partition string `json:"partition"`
	Nodes     string `json:"nodes"`
	CPUs      string `json:"cpus,omitempty"`
	MaxRSS    string `json:"max_rss,omitempty"`

	// Output paths are resolved lazily on demand, not at parse time.
	StdoutPath string `json:"stdout_path,omitempty"`
	StderrPath string `json:"stderr_path,omitempty"`

	// endTime is the parsed End timestamp used for ordering; nil when
	// the scheduler reported no usable end time.
	endTime *time.Time
}

// EndTime returns the parsed end timestamp, if one was reported.
func (h *HistoryRecord) EndTime() (time.Time, bool) {
	if h.endTime == nil {
		return time.Time{}, false
	}
	return *h.endTime, true
}

// NodeGPUInfo is node-local GPU telemetry sampled via nvidia-smi.
type NodeGPUInfo struct {
	Name        string `json:"name"`
	TotalMemory string `json:"total_memory"`
}

// CancelResult is the per-identifier outcome of a bulk cancellation.
// Failures are independent; successes are never rolled back.
type CancelResult struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}
