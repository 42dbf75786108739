// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"sort"
	"strings"

	xglog "github.com/baldenna/dutree/internal/log"
)

const envPrefix = "DUTREE_"

// UnknownEnvKeys returns the DUTREE_* variables of the environment that Load
// did not consult, sorted. Call it after Load.
func (l *Loader) UnknownEnvKeys() []string {
	var unknown []string
	for _, pair := range l.environ() {
		key, _, _ := strings.Cut(pair, "=")
		if !strings.HasPrefix(key, envPrefix) {
			continue
		}
		if _, consumed := l.ConsumedEnvKeys[key]; consumed {
			continue
		}
		unknown = append(unknown, key)
	}
	sort.Strings(unknown)
	return unknown
}

// WarnUnknownEnv logs every unknown DUTREE_* key (dead setting or typo) and
// returns how many were found.
func (l *Loader) WarnUnknownEnv() int {
	unknown := l.UnknownEnvKeys()
	if len(unknown) == 0 {
		return 0
	}
	logger := xglog.WithComponent("config")
	for _, key := range unknown {
		logger.Warn().
			Str(xglog.FieldEvent, "config.unknown_env").
			Str("key", key).
			Msg("unknown DUTREE env key detected (dead setting or typo)")
	}
	return len(unknown)
}
