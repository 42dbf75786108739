// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"encoding/json"
	"io"

	"github.com/baldenna/dutree/internal/scan"
)

// Report is the JSON document written by -format json.
type Report struct {
	RootPath         string     `json:"root_path"`
	Root             *scan.Node `json:"root"`
	Stats            scan.Stats `json:"stats"`
	ElapsedMS        int64      `json:"elapsed_ms"`
	EntriesPerSecond float64    `json:"entries_per_second"`
}

// NewReport builds the JSON report, pruning entries hidden by maxDepth.
func NewReport(res *scan.Result, maxDepth int) Report {
	return Report{
		RootPath:         res.RootPath,
		Root:             Prune(res.Root, maxDepth),
		Stats:            res.Stats,
		ElapsedMS:        res.Stats.Elapsed().Milliseconds(),
		EntriesPerSecond: res.Stats.EntriesPerSecond(),
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, res *scan.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(res, opts.MaxDepth))
}

// Prune returns a copy of n without descendants hidden by maxDepth. The input
// tree is not modified.
func Prune(n *scan.Node, maxDepth int) *scan.Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Children = nil
	for _, c := range n.Children {
		if !Visible(c, maxDepth) {
			continue
		}
		cp.Children = append(cp.Children, Prune(c, maxDepth))
	}
	return &cp
}
