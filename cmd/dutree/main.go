// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// dutree prints a directory tree sorted by cumulative size.
//
// Usage:
//
//	dutree [flags] [root]
//	dutree history [-db FILE] [-root DIR] [-limit N] [-json]
//	dutree compare [-db FILE] [-limit N] OLD NEW
//	dutree verify [-db FILE] [-mode quick|full]
//	dutree config -f config.yaml
//
// Exit codes:
//   - 0: success
//   - 1: runtime failure (missing root, store or output error)
//   - 2: usage error (bad flags, invalid configuration)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baldenna/dutree/internal/config"
	xglog "github.com/baldenna/dutree/internal/log"
	"github.com/baldenna/dutree/internal/telemetry"
	"github.com/baldenna/dutree/internal/validate"
	"github.com/baldenna/dutree/internal/version"
	"github.com/google/uuid"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches subcommands and otherwise performs a scan.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "history":
			return runHistoryCLI(ctx, args[1:], stdout, stderr)
		case "compare":
			return runCompareCLI(ctx, args[1:], stdout, stderr)
		case "verify":
			return runVerifyCLI(ctx, args[1:], stdout, stderr)
		case "config":
			return runConfigCLI(args[1:], stdout, stderr)
		}
	}
	return runScan(ctx, args, stdout, stderr)
}

func runScan(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dutree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "Error: expected at most one root, got %d\n", fs.NArg())
		return exitUsage
	}

	if flags.ShowVersion {
		fmt.Fprintln(stdout, version.String())
		return exitOK
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Output:  stderr,
		Service: "dutree",
		Version: version.Version,
	})
	logger := xglog.WithComponent("cli")

	cfg, err := loadConfig(flags)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.invalid").
			Str("config_path", flags.ConfigPath).
			Msg("configuration rejected")
		return exitUsage
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  stderr,
		Service: "dutree",
		Version: version.Version,
	})
	logger = xglog.WithComponent("cli")

	provider, err := telemetry.NewProvider(ctx, cfg.TelemetryOptions())
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("failed to initialize tracing")
		return exitFailure
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("failed to flush traces")
		}
	}()

	ctx = telemetry.ContextWithParent(ctx, os.Getenv(telemetry.EnvTraceParent))
	ctx = xglog.ContextWithRunID(ctx, uuid.NewString())

	a, err := newApp(cfg, stdout)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "app.init_failed").Msg("failed to initialize")
		return exitFailure
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Str(xglog.FieldEvent, "scan.interrupted").Msg("interrupted")
			return exitFailure
		}
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "scan.failed").
			Str(xglog.FieldRoot, cfg.Root).
			Msg("scan failed")
		return exitFailure
	}
	return exitOK
}

// loadConfig resolves defaults, file, environment and flags, then validates.
func loadConfig(flags *config.Flags) (config.Config, error) {
	loader := config.NewLoader(flags.ConfigPath)
	cfg, err := loader.Load()
	if err != nil {
		return config.Config{}, err
	}
	loader.WarnUnknownEnv()
	flags.Apply(&cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	level, _ := validate.ParseLogLevel(cfg.LogLevel)
	cfg.LogLevel = string(level)
	return cfg, nil
}
