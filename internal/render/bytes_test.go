// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytesBinary(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{27, "27 B"},
		{999, "999 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048575, "1.0 MiB"},
		{1048576, "1.0 MiB"},
		{10 * 1024 * 1024, "10.0 MiB"},
		{1073741824, "1.0 GiB"},
		{1099511627776, "1.0 TiB"},
		{1125899906842624, "1.0 PiB"},
		{math.MaxInt64, "8.0 EiB"},
		{-1536, "-1.5 KiB"},
		{-27, "-27 B"},
		{math.MinInt64, "-8.0 EiB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytesBinary(tt.in), "FormatBytesBinary(%d)", tt.in)
	}
}

func TestFormatBytesSI(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytesSI(0))
	assert.Equal(t, "1.5 kB", FormatBytesSI(1500))
	assert.Equal(t, "83 MB", FormatBytesSI(82854982))
	assert.Equal(t, "-1.5 kB", FormatBytesSI(-1500))
}

func TestUnitsFormatter(t *testing.T) {
	assert.Equal(t, "1.0 KiB", UnitsBinary.Formatter()(1024))
	assert.Equal(t, "1.0 kB", UnitsSI.Formatter()(1000))
	assert.Equal(t, "1.0 KiB", Units("bogus").Formatter()(1024))
}
