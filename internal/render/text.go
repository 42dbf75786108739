// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package render turns scan results into the reports printed by dutree.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/baldenna/dutree/internal/scan"
	"github.com/dustin/go-humanize"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// DefaultMaxDepth matches the walker's historical default.
const DefaultMaxDepth = 100

// Options controls rendering.
type Options struct {
	Format   Format
	Units    Units
	MaxDepth int  // Entries with more than MaxDepth directories above them (the root excluded) are hidden
	Verbose  bool // Print parallel dispatch counters
}

// Visible reports whether n is printed under maxDepth. The root's direct
// children are level 0.
func Visible(n *scan.Node, maxDepth int) bool {
	return n.Depth-1 <= maxDepth
}

// Write renders res in the configured format.
func Write(w io.Writer, res *scan.Result, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return WriteJSON(w, res, opts)
	case FormatText, "":
		return WriteText(w, res, opts)
	default:
		return fmt.Errorf("unsupported format %q", opts.Format)
	}
}

// WriteText prints the tree followed by the run summary:
//
//	docs 1.0 KiB
//	  guide.md 700 B
//	  readme.md 300 B
//	a.txt 100 B
//
//	Processing parallel time: 3ms
//	Files per second: 3,666
//	Files total: 11
func WriteText(w io.Writer, res *scan.Result, opts Options) error {
	bw := bufio.NewWriter(w)
	size := opts.Units.Formatter()

	if opts.Verbose {
		fmt.Fprintf(bw, "Parallel skipped: %d\n", res.Stats.ParallelSkipped)
		fmt.Fprintf(bw, "Parallel allowed: %d\n", res.Stats.ParallelAllowed)
	}

	for _, child := range res.Root.Children {
		child.Visit(func(n *scan.Node) bool {
			if !Visible(n, opts.MaxDepth) {
				return false
			}
			writeLine(bw, n, size)
			return true
		})
	}
	bw.WriteString("\n")

	writeSummary(bw, res.Stats)
	return bw.Flush()
}

func writeLine(bw *bufio.Writer, n *scan.Node, size func(int64) string) {
	bw.WriteString(strings.Repeat("  ", n.Depth-1))
	bw.WriteString(n.Name)
	bw.WriteString(n.Marker())
	bw.WriteByte(' ')
	bw.WriteString(size(n.Size))
	bw.WriteByte('\n')
}

func writeSummary(bw *bufio.Writer, st scan.Stats) {
	fmt.Fprintf(bw, "Processing parallel time: %dms\n", st.Elapsed().Milliseconds())
	fmt.Fprintf(bw, "Files per second: %s\n", humanize.Comma(int64(st.EntriesPerSecond())))
	fmt.Fprintf(bw, "Files total: %s\n", humanize.Comma(st.Entries))
	if st.Errors > 0 {
		fmt.Fprintf(bw, "Errors: %s\n", humanize.Comma(st.Errors))
	}
}
