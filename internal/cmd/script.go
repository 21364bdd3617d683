package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/slurmdeck/slurmdeck/pkg/slurm"
)

var scriptCmd = &cobra.Command{
	Use:   "script <job-id>",
	Short: "Archive a job's submission script and print the archive path",
	Long: `Copy the job's submission script into the archive so it survives
later edits or deletion. Archiving is idempotent: repeated calls for
the same job return the existing copy.

Example:
  slurmdeck script 12345`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	m := newManager()
	defer m.Close()

	jobs, err := m.Refresh(cmd.Context())
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to fetch jobs", err)
	}

	var job *slurm.JobRecord
	for i := range jobs {
		if jobs[i].ID == jobID {
			job = &jobs[i]
			break
		}
	}
	if job == nil {
		return exitError(foundry.ExitInvalidArgument, "Job not found in the active set", fmt.Errorf("job %s", jobID))
	}

	path, ok := m.ArchiveScript(job.ID, job.Command)
	if !ok {
		return exitError(foundry.ExitFileWriteError, "Failed to archive script",
			fmt.Errorf("script %q could not be archived", job.Command))
	}
	fmt.Println(path)
	return nil
}
