// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// LogLevel is a level accepted by the -log-level flag.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogLevels lists the accepted levels, most verbose first.
var LogLevels = []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError}

// ErrInvalidLogLevel is returned by ParseLogLevel for unknown levels.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ParseLogLevel normalizes s (case and surrounding space) and checks it against
// LogLevels.
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(LogLevels, level) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}

// LogLevel records an error unless value names one of LogLevels.
func (v *Validator) LogLevel(field, value string) {
	if _, err := ParseLogLevel(value); err != nil {
		names := make([]string, len(LogLevels))
		for i, l := range LogLevels {
			names[i] = string(l)
		}
		v.AddError(field, "must be one of "+strings.Join(names, ", "), value)
	}
}
