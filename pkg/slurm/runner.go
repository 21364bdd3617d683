package slurm

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrUnavailable indicates the underlying scheduler tooling cannot run
// at all (binary missing, not on a cluster-attached host). Callers
// treat this as "no data", not as a hard failure.
var ErrUnavailable = errors.New("scheduler command unavailable")

// Runner spawns one scheduler command and returns its standard output.
//
// Implementations must honor ctx cancellation. A failed invocation
// returns the combined diagnostic text in the error, never a partial
// stdout string.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s: %s", name, msg)
	}
	return stdout.String(), nil
}
