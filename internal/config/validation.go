// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"time"

	"github.com/baldenna/dutree/internal/render"
	"github.com/baldenna/dutree/internal/validate"
)

// Validate validates the complete configuration. All failures are reported
// together and wrapped with ErrInvalidConfig.
func Validate(cfg Config) error {
	v := validate.New()

	v.NotEmpty("root", cfg.Root)
	v.Positive("parallel", cfg.Parallel)
	v.NonNegative("maxDepth", cfg.MaxDepth)
	v.OneOf("format", cfg.Format, []string{string(render.FormatText), string(render.FormatJSON)})
	v.OneOf("units", cfg.Units, []string{string(render.UnitsBinary), string(render.UnitsSI)})

	v.LogLevel("logLevel", cfg.LogLevel)

	v.WritableFile("output", cfg.Output)
	v.WritableFile("storePath", cfg.StorePath)
	v.WritableFile("metricsFile", cfg.MetricsFile)

	v.Custom("watchDebounce", cfg.WatchDebounce, func(val interface{}) error {
		if d, _ := val.(time.Duration); d < 0 {
			return fmt.Errorf("value cannot be negative, got %s", d)
		}
		return nil
	})

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)

	if !v.IsValid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, v.Err())
	}
	return nil
}
