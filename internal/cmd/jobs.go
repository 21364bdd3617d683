package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/slurmdeck/slurmdeck/internal/observability"
	"github.com/slurmdeck/slurmdeck/pkg/slurm"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List active jobs with enriched detail",
	Long: `Fetch the current active-job snapshot, enriched with output paths,
GPU allocation, memory, archived-script and pin markers.

Example:
  slurmdeck jobs
  slurmdeck jobs --output json
  slurmdeck jobs --output yaml`,
	RunE: runJobs,
}

var jobsOutput string

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().StringVarP(&jobsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runJobs(cmd *cobra.Command, args []string) error {
	m := newManager()
	defer m.Close()

	jobs, err := m.Refresh(cmd.Context())
	if err != nil {
		observability.CLILogger.Error("Refresh failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to fetch jobs", err)
	}

	switch jobsOutput {
	case "table":
		printJobsTable(jobs)
		return nil
	case "json":
		return encodeJSON(jobs)
	case "yaml":
		return encodeYAML(jobs)
	default:
		return exitError(foundry.ExitInvalidArgument, "Invalid --output value", fmt.Errorf("expected table, json, or yaml"))
	}
}

func printJobsTable(jobs []slurm.JobRecord) {
	if len(jobs) == 0 {
		fmt.Println("No active jobs.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOBID\tNAME\tSTATE\tELAPSED\tLIMIT\tPROG\tPARTITION\tNODES\tGPU\tMEM\tPIN")
	for i := range jobs {
		j := &jobs[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Name, j.State.Label(), j.Elapsed, j.TimeLimit,
			formatProgress(j.Progress()), j.Partition, j.Nodes,
			formatGPU(j.GPU), orDash(j.Memory), pinMark(j.Pinned))
	}
	_ = w.Flush()
}

func formatProgress(pct int) string {
	if pct == slurm.ProgressUnknown {
		return "-"
	}
	return fmt.Sprintf("%d%%", pct)
}

func formatGPU(gpu *slurm.GPUAlloc) string {
	if gpu == nil {
		return "-"
	}
	if gpu.Type != "" {
		return fmt.Sprintf("%dx%s", gpu.Count, gpu.Type)
	}
	return fmt.Sprintf("%d", gpu.Count)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func pinMark(pinned bool) string {
	if pinned {
		return "*"
	}
	return ""
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}

func encodeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(v); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to write output", err)
	}
	return nil
}
