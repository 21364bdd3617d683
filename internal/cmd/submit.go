package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit <script>",
	Short: "Submit a batch script",
	Long: `Submit a batch script via sbatch and archive a copy under the new
job id so the exact submitted script is recoverable later.

Example:
  slurmdeck submit train.sbatch`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	m := newManager()
	defer m.Close()

	jobID, err := m.Submit(cmd.Context(), scriptPath)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Submission failed", err)
	}

	fmt.Printf("Submitted batch job %s\n", jobID)
	if path, ok := m.ArchiveScript(jobID, scriptPath); ok {
		fmt.Printf("archived script: %s\n", path)
	}
	return nil
}
