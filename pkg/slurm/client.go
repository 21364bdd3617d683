package slurm

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Commands names the external binaries the client invokes. Entries may
// be bare names resolved via PATH or absolute paths.
type Commands struct {
	Squeue    string
	Sacct     string
	Scontrol  string
	Scancel   string
	Sbatch    string
	NvidiaSMI string
}

// DefaultCommands returns the standard binary names.
func DefaultCommands() Commands {
	return Commands{
		Squeue:    "squeue",
		Sacct:     "sacct",
		Scontrol:  "scontrol",
		Scancel:   "scancel",
		Sbatch:    "sbatch",
		NvidiaSMI: "nvidia-smi",
	}
}

// Options configures the refresh fan-out.
type Options struct {
	// Concurrency is the number of parallel per-job detail fetches.
	// Default: 8
	Concurrency int

	// RateLimit is the maximum detail-fetch invocations per second.
	// Zero means unlimited.
	RateLimit float64

	Logger *zap.Logger
}

// Client fetches and normalizes scheduler state through an injected
// Runner. All methods degrade to empty results when the scheduler
// tooling is unavailable; only control operations (cancel, submit)
// surface hard errors.
type Client struct {
	runner   Runner
	commands Commands
	log      *zap.Logger

	concurrency int
	limiter     *rate.Limiter
}

// NewClient creates a client. Zero-value Options fields get defaults.
func NewClient(runner Runner, commands Commands, opts Options) *Client {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		runner:      runner,
		commands:    commands,
		log:         log,
		concurrency: opts.Concurrency,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c
}
