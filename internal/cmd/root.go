// Package cmd implements the slurmdeck command tree.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slurmdeck/slurmdeck/internal/config"
	"github.com/slurmdeck/slurmdeck/internal/observability"
	"github.com/slurmdeck/slurmdeck/pkg/dashboard"
	"github.com/slurmdeck/slurmdeck/pkg/jobcache"
	"github.com/slurmdeck/slurmdeck/pkg/kvstore"
	"github.com/slurmdeck/slurmdeck/pkg/slurm"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected via ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var cfg *config.Config

var (
	rootLogLevel  string
	rootLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "slurmdeck",
	Short: "Aggregate, cache, and act on Slurm job state",
	Long: `slurmdeck normalizes Slurm command-line output into typed job
records, remembers output paths, submission scripts, and pins across
restarts, and validates job-array cancellation selectors before any
scancel is issued.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		level := cfg.Logging.Level
		if rootLogLevel != "" {
			level = rootLogLevel
		}
		format := cfg.Logging.Format
		if rootLogFormat != "" {
			format = rootLogFormat
		}
		if err := observability.Init(level, format); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Override log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "", "Override log format (console|json)")
}

// Execute runs the command tree.
func Execute() error {
	defer observability.Sync()
	return rootCmd.Execute()
}

// newManager wires the configured client and caches into a dashboard
// manager. Cache stores that cannot be created log and fall back to
// in-memory only so a broken cache dir never blocks a refresh.
func newManager() *dashboard.Manager {
	log := observability.CLILogger

	client := slurm.NewClient(slurm.ExecRunner{}, slurm.Commands{
		Squeue:    cfg.Slurm.Squeue,
		Sacct:     cfg.Slurm.Sacct,
		Scontrol:  cfg.Slurm.Scontrol,
		Scancel:   cfg.Slurm.Scancel,
		Sbatch:    cfg.Slurm.Sbatch,
		NvidiaSMI: cfg.Slurm.NvidiaSMI,
	}, slurm.Options{
		Concurrency: cfg.Fetch.Concurrency,
		RateLimit:   cfg.Fetch.RateLimit,
		Logger:      log,
	})

	caches := dashboard.Caches{
		Paths:   jobcache.NewPathCache(openStore("paths"), cfg.Cache.PathTTL, log),
		Scripts: jobcache.NewScriptCache(openStore("scripts"), filepath.Join(cfg.Cache.Dir, "scripts"), cfg.Cache.ScriptTTL, log),
		Pins:    jobcache.NewPinCache(openStore("pins"), cfg.Cache.PinStale, log),
	}

	m := dashboard.New(client, caches, log)
	m.ConfirmThreshold = cfg.Cancel.ConfirmThreshold
	m.HistorySince = cfg.Fetch.HistorySince
	return m
}

// openStore creates the file-backed store for one cache, degrading to
// memory-only when the cache dir is unusable.
func openStore(name string) kvstore.Store {
	store, err := kvstore.NewFileStore(cfg.Cache.Dir, name)
	if err != nil {
		observability.CLILogger.Warn("cache store unavailable, using memory only",
			zap.String("cache", name),
			zap.Error(err))
		return kvstore.NewMemStore()
	}
	return store
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
