// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for dutree.
//
// Values are resolved with the precedence flags > environment > YAML file >
// defaults.
package config

import (
	"time"

	"github.com/baldenna/dutree/internal/render"
	"github.com/baldenna/dutree/internal/scan"
	"github.com/baldenna/dutree/internal/telemetry"
	"github.com/baldenna/dutree/internal/version"
)

// Config is the resolved runtime configuration of a dutree invocation.
type Config struct {
	Root           string `yaml:"root"`
	Parallel       int    `yaml:"parallel"`
	MaxDepth       int    `yaml:"maxDepth"`
	OnlyDirs       bool   `yaml:"onlyDirs"`
	Verbose        bool   `yaml:"verbose"`
	FollowSymlinks bool   `yaml:"followSymlinks"`

	Format string `yaml:"format"` // text|json
	Units  string `yaml:"units"`  // binary|si
	Output string `yaml:"output"` // empty writes to stdout

	LogLevel string `yaml:"logLevel"`

	StorePath   string `yaml:"storePath"`   // SQLite snapshot store; empty disables
	MetricsFile string `yaml:"metricsFile"` // Prometheus textfile; empty disables

	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watchDebounce"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc|http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Root:          ".",
		Parallel:      1,
		MaxDepth:      render.DefaultMaxDepth,
		Format:        string(render.FormatText),
		Units:         string(render.UnitsBinary),
		LogLevel:      "info",
		WatchDebounce: 500 * time.Millisecond,
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// ScanOptions maps the configuration onto walker options.
func (c Config) ScanOptions() scan.Options {
	return scan.Options{
		Parallelism:    c.Parallel,
		OnlyDirs:       c.OnlyDirs,
		FollowSymlinks: c.FollowSymlinks,
	}
}

// RenderOptions maps the configuration onto report options.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		Format:   render.Format(c.Format),
		Units:    render.Units(c.Units),
		MaxDepth: c.MaxDepth,
		Verbose:  c.Verbose,
	}
}

// TelemetryOptions maps the configuration onto the tracer provider config.
func (c Config) TelemetryOptions() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "dutree",
		ServiceVersion: version.Version,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}
