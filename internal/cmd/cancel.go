package cmd

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/internal/observability"
	"github.com/slurmdeck/slurmdeck/pkg/arrayspec"
	"github.com/slurmdeck/slurmdeck/pkg/dashboard"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a job, or selected tasks of a job array",
	Long: `Cancel a job. For job arrays, --tasks selects which task indices to
cancel; the selector is validated against the array's declared bounds
before any scancel is issued.

Selector forms:
  (empty)     the whole array
  L-H         index range, inclusive
  L-H:S       stepped range
  i1,i2,...   explicit list, duplicates rejected

Example:
  slurmdeck cancel 12345
  slurmdeck cancel 12345 --tasks 0-10
  slurmdeck cancel 12345 --tasks 0-200:2 --yes
  slurmdeck cancel 12345 --tasks 1,3,5,7 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

var (
	cancelTasks  string
	cancelYes    bool
	cancelDryRun bool
)

func init() {
	rootCmd.AddCommand(cancelCmd)
	cancelCmd.Flags().StringVar(&cancelTasks, "tasks", "", "Array task selector (default: whole array)")
	cancelCmd.Flags().BoolVar(&cancelYes, "yes", false, "Confirm large cancellations without prompting")
	cancelCmd.Flags().BoolVar(&cancelDryRun, "dry-run", false, "Show what would be cancelled without executing")
}

func runCancel(cmd *cobra.Command, args []string) error {
	baseID := args[0]
	m := newManager()
	defer m.Close()

	if cancelDryRun {
		plan, err := m.CancelPlan(cmd.Context(), baseID, cancelTasks)
		if err != nil {
			return cancelError(err)
		}
		fmt.Printf("Would cancel %d identifier(s):\n", len(plan.IDs))
		for _, id := range plan.IDs {
			fmt.Printf("  %s\n", id)
		}
		if plan.NeedsConfirmation {
			fmt.Println("This batch exceeds the confirmation threshold; --yes would be required.")
		}
		return nil
	}

	plan, results, err := m.CancelArray(cmd.Context(), baseID, cancelTasks, cancelYes)
	if errors.Is(err, dashboard.ErrConfirmationRequired) {
		observability.CLILogger.Warn("cancellation needs confirmation",
			zap.String("job_id", baseID),
			zap.Int("tasks", len(plan.IDs)))
		return exitError(foundry.ExitInvalidArgument,
			fmt.Sprintf("Cancelling %d tasks needs confirmation; re-run with --yes", len(plan.IDs)), err)
	}
	if err != nil {
		return cancelError(err)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("FAILED  %s: %v\n", res.ID, res.Err)
			continue
		}
		fmt.Printf("cancelled %s\n", res.ID)
	}
	if failed > 0 {
		return exitError(foundry.ExitExternalServiceUnavailable,
			fmt.Sprintf("%d of %d cancellations failed", failed, len(results)),
			fmt.Errorf("partial cancellation failure"))
	}
	return nil
}

func cancelError(err error) error {
	var verr *arrayspec.ValidationError
	if errors.As(err, &verr) {
		return exitError(foundry.ExitInvalidArgument, "Invalid task selector", err)
	}
	return exitError(foundry.ExitExternalServiceUnavailable, "Cancel failed", err)
}
