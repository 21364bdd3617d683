// Package observability provides process-wide loggers for the CLI and
// long-running server surfaces.
//
// CLILogger writes human-oriented console output to stderr so command
// results on stdout stay machine-parseable. Init reconfigures the level
// and encoding once configuration has been loaded; before Init runs the
// logger is usable with info-level console defaults.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the shared logger for command and package code.
var CLILogger = mustBuild("info", "console")

// Init replaces CLILogger according to the configured level and format.
// Format is "console" or "json".
func Init(level, format string) error {
	logger, err := build(level, format)
	if err != nil {
		return err
	}
	old := CLILogger
	CLILogger = logger
	_ = old.Sync()
	return nil
}

// Sync flushes any buffered log entries. Called on process teardown.
func Sync() {
	_ = CLILogger.Sync()
}

func build(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	switch format {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json":
		cfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	return cfg.Build()
}

func mustBuild(level, format string) *zap.Logger {
	logger, err := build(level, format)
	if err != nil {
		panic(err)
	}
	return logger
}
