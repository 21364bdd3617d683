package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/internal/observability"
	"github.com/slurmdeck/slurmdeck/pkg/slurm"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished jobs from accounting history",
	Long: `Fetch terminal jobs from sacct, newest first. Job steps and jobs
still running or pending are excluded.

Example:
  slurmdeck history
  slurmdeck history --limit 20 --paths
  slurmdeck history --output json`,
	RunE: runHistory,
}

var (
	historyOutput string
	historyLimit  int
	historyPaths  bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "Output format (table|json|yaml)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum records to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyPaths, "paths", false, "Resolve stdout/stderr paths for each record")
}

func runHistory(cmd *cobra.Command, args []string) error {
	m := newManager()
	defer m.Close()

	records, err := m.RefreshHistory(cmd.Context())
	if err != nil {
		observability.CLILogger.Error("History fetch failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to fetch history", err)
	}

	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if historyPaths {
		for i := range records {
			m.ResolveHistoryPaths(cmd.Context(), &records[i])
		}
	}

	switch historyOutput {
	case "table":
		printHistoryTable(records)
		return nil
	case "json":
		return encodeJSON(records)
	case "yaml":
		return encodeYAML(records)
	default:
		return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("expected table, json, or yaml"))
	}
}

func printHistoryTable(records []slurm.HistoryRecord) {
	if len(records) == 0 {
		fmt.Println("No history records.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOBID\tNAME\tSTATE\tEXIT\tEND\tELAPSED\tPARTITION\tNODES")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Name, r.State, r.ExitCode, r.End, r.Elapsed, r.Partition, r.Nodes)
	}
	_ = w.Flush()
}
