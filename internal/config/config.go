// Package config loads slurmdeck configuration with layered precedence:
// built-in defaults, then an optional YAML config file, then SLURMDECK_*
// environment variables, then runtime overrides supplied by the caller.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// SlurmConfig names the external commands the core shells out to.
// Values may be bare command names (resolved via PATH) or absolute paths.
type SlurmConfig struct {
	Squeue    string `mapstructure:"squeue"`
	Sacct     string `mapstructure:"sacct"`
	Scontrol  string `mapstructure:"scontrol"`
	Scancel   string `mapstructure:"scancel"`
	Sbatch    string `mapstructure:"sbatch"`
	NvidiaSMI string `mapstructure:"nvidia_smi"`
}

// CacheConfig controls the persistent cache layer.
type CacheConfig struct {
	// Dir is the on-disk root for cache state and archived scripts.
	Dir string `mapstructure:"dir"`

	// PathTTL bounds how long resolved output paths are remembered.
	PathTTL time.Duration `mapstructure:"path_ttl"`

	// ScriptTTL bounds how long archived submission scripts are kept.
	ScriptTTL time.Duration `mapstructure:"script_ttl"`

	// PinStale is the window after which a pin for a job no longer in
	// the active set may be removed.
	PinStale time.Duration `mapstructure:"pin_stale"`
}

// FetchConfig controls the refresh fan-out.
type FetchConfig struct {
	// Concurrency is the number of parallel per-job detail fetches.
	Concurrency int `mapstructure:"concurrency"`

	// RateLimit is the maximum detail-fetch invocations per second.
	// Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// HistorySince bounds how far back the history query looks.
	HistorySince time.Duration `mapstructure:"history_since"`
}

// CancelConfig controls array-cancellation safety rails.
type CancelConfig struct {
	// ConfirmThreshold is the resolved-task count above which a bulk
	// cancellation requires explicit confirmation.
	ConfirmThreshold int `mapstructure:"confirm_threshold"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig controls the read-only JSON API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Config is the root configuration.
type Config struct {
	Slurm   SlurmConfig   `mapstructure:"slurm"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Cancel  CancelConfig  `mapstructure:"cancel"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

const envPrefix = "SLURMDECK"

// Load builds the effective configuration. Optional override maps are
// applied last, in order, with the deepest key winning.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, ".slurmdeck"))
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; a malformed one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set places overrides above env vars and the config file.
	for _, o := range overrides {
		for key, value := range flatten("", o) {
			v.Set(key, value)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Fetch.Concurrency < 1 {
		return nil, fmt.Errorf("fetch.concurrency must be >= 1, got %d", cfg.Fetch.Concurrency)
	}
	if cfg.Cancel.ConfirmThreshold < 1 {
		return nil, fmt.Errorf("cancel.confirm_threshold must be >= 1, got %d", cfg.Cancel.ConfirmThreshold)
	}

	return &cfg, nil
}

// flatten converts a nested override map into dotted viper keys.
func flatten(prefix string, m map[string]any) map[string]any {
	out := map[string]any{}
	for k, value := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := value.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = value
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("slurm.squeue", "squeue")
	v.SetDefault("slurm.sacct", "sacct")
	v.SetDefault("slurm.scontrol", "scontrol")
	v.SetDefault("slurm.scancel", "scancel")
	v.SetDefault("slurm.sbatch", "sbatch")
	v.SetDefault("slurm.nvidia_smi", "nvidia-smi")

	v.SetDefault("cache.dir", defaultCacheDir())
	v.SetDefault("cache.path_ttl", 30*24*time.Hour)
	v.SetDefault("cache.script_ttl", 30*24*time.Hour)
	v.SetDefault("cache.pin_stale", 7*24*time.Hour)

	v.SetDefault("fetch.concurrency", 8)
	v.SetDefault("fetch.rate_limit", 0.0)
	v.SetDefault("fetch.history_since", 72*time.Hour)

	v.SetDefault("cancel.confirm_threshold", 100)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8484)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

func defaultCacheDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".slurmdeck", "cache")
	}
	return filepath.Join(".", ".slurmdeck", "cache")
}
