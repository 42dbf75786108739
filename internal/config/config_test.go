// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"flag"
	"path/filepath"
	"testing"
	"time"

	"github.com/baldenna/dutree/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	require.NoError(t, Validate(cfg))
}

func TestLoad_File(t *testing.T) {
	cfg, err := NewLoader(filepath.Join("testdata", "full.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/data", cfg.Root)
	assert.Equal(t, 8, cfg.Parallel)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.True(t, cfg.OnlyDirs)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "si", cfg.Units)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce)
	assert.Equal(t, TelemetryConfig{
		Enabled:      true,
		Exporter:     "http",
		Endpoint:     "collector:4318",
		SamplingRate: 0.25,
	}, cfg.Telemetry)
	// Keys missing from the file keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := NewLoader(filepath.Join("testdata", "empty.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := NewLoader(filepath.Join("testdata", "unknown.yaml")).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_MultipleDocuments(t *testing.T) {
	_, err := NewLoader(filepath.Join("testdata", "multi.yaml")).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join("testdata", "nope.yaml")).Load()
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvParallel, "16")
	t.Setenv(EnvFormat, "text")
	t.Setenv(EnvOnlyDirs, "no")
	t.Setenv(EnvWatchDebounce, "250ms")
	t.Setenv(EnvOTelSampling, "0.5")
	t.Setenv(EnvMaxDepth, "not-a-number")

	l := NewLoader(filepath.Join("testdata", "full.yaml"))
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Parallel)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.OnlyDirs)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	assert.InDelta(t, 0.5, cfg.Telemetry.SamplingRate, 1e-9)
	// Invalid values fall back to the file value.
	assert.Equal(t, 3, cfg.MaxDepth)

	assert.Contains(t, l.ConsumedEnvKeys, EnvParallel)
	assert.Contains(t, l.ConsumedEnvKeys, EnvWatchDebounce)
}

func TestLoader_UnknownEnvKeys(t *testing.T) {
	l := NewLoader("")
	l.environ = func() []string {
		return []string{
			"HOME=/root",
			EnvParallel + "=4",
			"DUTREE_PARALELL=8",
			"DUTREE_OTEL_ENDPOINT=localhost:4317",
			"DUTREE_COLOR",
		}
	}

	// Nothing has been consulted before Load.
	assert.Equal(t, []string{"DUTREE_COLOR", "DUTREE_OTEL_ENDPOINT", "DUTREE_PARALELL", EnvParallel}, l.UnknownEnvKeys())

	_, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"DUTREE_COLOR", "DUTREE_PARALELL"}, l.UnknownEnvKeys())
	assert.Equal(t, 2, l.WarnUnknownEnv())
}

func TestLoad_EmptyEnvKeepsValue(t *testing.T) {
	t.Setenv(EnvRoot, "")
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Root)
}

func TestFlags_OnlyExplicitFlagsApply(t *testing.T) {
	fs := flag.NewFlagSet("dutree", flag.ContinueOnError)
	f := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-parallel", "4", "-si", "--only-dirs", "/data"}))

	cfg := Defaults()
	cfg.MaxDepth = 7 // from env or file
	f.Apply(&cfg)

	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, "si", cfg.Units)
	assert.True(t, cfg.OnlyDirs)
	assert.Equal(t, "/data", cfg.Root)
	assert.Equal(t, 7, cfg.MaxDepth)
}

func TestFlags_NoRootArgKeepsRoot(t *testing.T) {
	fs := flag.NewFlagSet("dutree", flag.ContinueOnError)
	f := RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg := Defaults()
	cfg.Root = "/from/env"
	f.Apply(&cfg)
	assert.Equal(t, "/from/env", cfg.Root)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero parallel", mutate: func(c *Config) { c.Parallel = 0 }, fields: []string{"parallel"}},
		{name: "negative depth", mutate: func(c *Config) { c.MaxDepth = -1 }, fields: []string{"maxDepth"}},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, fields: []string{"format"}},
		{name: "bad units", mutate: func(c *Config) { c.Units = "metric" }, fields: []string{"units"}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, fields: []string{"logLevel"}},
		{name: "negative debounce", mutate: func(c *Config) { c.WatchDebounce = -time.Second }, fields: []string{"watchDebounce"}},
		{name: "sampling out of range", mutate: func(c *Config) { c.Telemetry.SamplingRate = 2 }, fields: []string{"telemetry.samplingRate"}},
		{
			name: "telemetry exporter checked only when enabled",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Exporter = "zipkin"
			},
			fields: []string{"telemetry.exporter"},
		},
		{name: "disabled telemetry ignores exporter", mutate: func(c *Config) { c.Telemetry.Exporter = "zipkin" }},
		{
			name:   "output is a directory",
			mutate: func(c *Config) { c.Output = t.TempDir() },
			fields: []string{"output"},
		},
		{
			name: "several at once",
			mutate: func(c *Config) {
				c.Parallel = -2
				c.Format = "csv"
			},
			fields: []string{"parallel", "format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr), "got %T", err)
			var got []string
			for _, e := range verr.Errors() {
				got = append(got, e.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := Defaults()
	cfg.Parallel = 3
	cfg.OnlyDirs = true
	cfg.Units = "si"

	assert.Equal(t, 3, cfg.ScanOptions().Parallelism)
	assert.True(t, cfg.ScanOptions().OnlyDirs)
	assert.Equal(t, "si", string(cfg.RenderOptions().Units))
	assert.Equal(t, 100, cfg.RenderOptions().MaxDepth)
	assert.Equal(t, "dutree", cfg.TelemetryOptions().ServiceName)
}
