// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvRoot           = "DUTREE_ROOT"
	EnvParallel       = "DUTREE_PARALLEL"
	EnvMaxDepth       = "DUTREE_MAX_DEPTH"
	EnvOnlyDirs       = "DUTREE_ONLY_DIRS"
	EnvVerbose        = "DUTREE_VERBOSE"
	EnvFollowSymlinks = "DUTREE_FOLLOW_SYMLINKS"
	EnvFormat         = "DUTREE_FORMAT"
	EnvUnits          = "DUTREE_UNITS"
	EnvOutput         = "DUTREE_OUTPUT"
	EnvLogLevel       = "DUTREE_LOG_LEVEL"
	EnvStore          = "DUTREE_STORE"
	EnvMetricsFile    = "DUTREE_METRICS_FILE"
	EnvWatchDebounce  = "DUTREE_WATCH_DEBOUNCE"
	EnvOTelEnabled    = "DUTREE_OTEL_ENABLED"
	EnvOTelExporter   = "DUTREE_OTEL_EXPORTER"
	EnvOTelEndpoint   = "DUTREE_OTEL_ENDPOINT"
	EnvOTelSampling   = "DUTREE_OTEL_SAMPLING_RATE"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{} // Keys consulted during Load
	environ         func() []string
}

// NewLoader creates a new configuration loader. An empty configPath skips the file layer.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
		environ:         os.Environ,
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load resolves defaults, then the YAML file, then the environment. Flags are
// applied afterwards by the caller (see Flags.Apply); validation is separate.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.mergeFile(&cfg); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	l.mergeEnv(&cfg)
	return cfg, nil
}

// mergeFile decodes the YAML file strictly on top of cfg. Keys absent from the
// file keep their current value.
func (l *Loader) mergeFile(cfg *Config) error {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.Root = l.envString(EnvRoot, cfg.Root)
	cfg.Parallel = l.envInt(EnvParallel, cfg.Parallel)
	cfg.MaxDepth = l.envInt(EnvMaxDepth, cfg.MaxDepth)
	cfg.OnlyDirs = l.envBool(EnvOnlyDirs, cfg.OnlyDirs)
	cfg.Verbose = l.envBool(EnvVerbose, cfg.Verbose)
	cfg.FollowSymlinks = l.envBool(EnvFollowSymlinks, cfg.FollowSymlinks)
	cfg.Format = l.envString(EnvFormat, cfg.Format)
	cfg.Units = l.envString(EnvUnits, cfg.Units)
	cfg.Output = l.envString(EnvOutput, cfg.Output)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.StorePath = l.envString(EnvStore, cfg.StorePath)
	cfg.MetricsFile = l.envString(EnvMetricsFile, cfg.MetricsFile)

	l.ConsumedEnvKeys[EnvWatchDebounce] = struct{}{}
	cfg.WatchDebounce = ParseDuration(EnvWatchDebounce, cfg.WatchDebounce)

	cfg.Telemetry.Enabled = l.envBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvOTelSampling, cfg.Telemetry.SamplingRate)
}
