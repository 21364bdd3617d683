package slurm

// JobState is the compact squeue state code for a job.
//
// NOTE: These values appear in persisted cache entries and JSON API
// output and are part of the stable contract.
type JobState string

const (
	StateRunning    JobState = "R"
	StatePending    JobState = "PD"
	StateCompleting JobState = "CG"
	StateCompleted  JobState = "CD"
	StateFailed     JobState = "F"
	StateTimeout    JobState = "TO"
	StateCancelled  JobState = "CA"
	StateNodeFail   JobState = "NF"
	StatePreempted  JobState = "PR"
	StateSuspended  JobState = "S"
)

var stateLabels = map[JobState]string{
	StateRunning:    "Running",
	StatePending:    "Pending",
	StateCompleting: "Completing",
	StateCompleted:  "Completed",
	StateFailed:     "Failed",
	StateTimeout:    "Timeout",
	StateCancelled:  "Cancelled",
	StateNodeFail:   "Node Failure",
	StatePreempted:  "Preempted",
	StateSuspended:  "Suspended",
}

var longStates = map[string]JobState{
	"RUNNING":    StateRunning,
	"PENDING":    StatePending,
	"COMPLETING": StateCompleting,
	"COMPLETED":  StateCompleted,
	"FAILED":     StateFailed,
	"TIMEOUT":    StateTimeout,
	"CANCELLED":  StateCancelled,
	"NODE_FAIL":  StateNodeFail,
	"PREEMPTED":  StatePreempted,
	"SUSPENDED":  StateSuspended,
}

// ParseState normalizes a squeue short code or sacct long form into a
// JobState. Unrecognized input passes through unchanged so callers can
// still display whatever the scheduler reported.
func ParseState(raw string) JobState {
	if _, ok := stateLabels[JobState(raw)]; ok {
		return JobState(raw)
	}
	if st, ok := longStates[raw]; ok {
		return st
	}
	return JobState(raw)
}

// Label returns the human-readable name for the state, or the raw code
// when the state is not part of the known enumeration.
func (s JobState) Label() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsActive reports whether the job is still queued or executing.
func (s JobState) IsActive() bool {
	switch s {
	case StateRunning, StatePending, StateCompleting, StateSuspended:
		return true
	}
	return false
}

// IsTerminal reports whether the job has reached a final state.
func (s JobState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimeout, StateCancelled, StateNodeFail, StatePreempted:
		return true
	}
	return false
}
