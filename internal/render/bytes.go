// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Units selects how sizes are printed.
type Units string

const (
	UnitsBinary Units = "binary" // 1.5 KiB
	UnitsSI     Units = "si"     // 1.5 kB
)

const binaryPrefixes = "KMGTPE"

// FormatBytesBinary renders n with one decimal and a binary prefix. Values below
// 1024 are printed as plain bytes. A value is promoted to the next prefix once
// it would round to 1024.0 of the current one, so 1048575 prints as "1.0 MiB"
// rather than "1024.0 KiB".
func FormatBytesBinary(n int64) string {
	abs := n
	switch {
	case n == math.MinInt64:
		abs = math.MaxInt64
	case n < 0:
		abs = -n
	}
	if abs < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	value := abs
	unit := 0
	for shift := 40; shift >= 0 && abs > 0xfffcccccccccccc>>shift; shift -= 10 {
		value >>= 10
		unit++
	}
	if n < 0 {
		value = -value
	}
	return fmt.Sprintf("%.1f %ciB", float64(value)/1024.0, binaryPrefixes[unit])
}

// FormatBytesSI renders n with SI prefixes.
func FormatBytesSI(n int64) string {
	if n < 0 {
		if n == math.MinInt64 {
			return "-" + humanize.Bytes(uint64(math.MaxInt64)+1)
		}
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

// Formatter returns the size formatter for u. Unknown units fall back to binary.
func (u Units) Formatter() func(int64) string {
	if u == UnitsSI {
		return FormatBytesSI
	}
	return FormatBytesBinary
}
