// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package snapshot persists scan results in SQLite so that runs can be listed
// and compared over time.
package snapshot

import (
	"errors"
	"time"

	"github.com/baldenna/dutree/internal/scan"
)

// ErrRunNotFound is returned when a run ID does not exist in the store.
var ErrRunNotFound = errors.New("snapshot run not found")

// Run is one persisted scan.
type Run struct {
	ID        string    `json:"id"`
	Root      string    `json:"root"` // Absolute path that was scanned
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	TotalSize int64     `json:"total_size"`
	Entries   int64     `json:"entries"`
	Errors    int64     `json:"errors"`
	MaxDepth  int       `json:"max_depth"`
}

// Elapsed returns the scan wall time.
func (r Run) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Entry is one stored node of a run.
type Entry struct {
	RunID  string      `json:"run_id"`
	Path   string      `json:"path"` // Relative to the run root, slash separated
	Kind   scan.Kind   `json:"kind"`
	Size   int64       `json:"size"`
	Depth  int         `json:"depth"`
	Status scan.Status `json:"status"`
}

// Change classifies a path between two runs.
type Change string

const (
	ChangeAdded   Change = "added"   // Only in the newer run
	ChangeRemoved Change = "removed" // Only in the older run
	ChangeGrown   Change = "grown"
	ChangeShrunk  Change = "shrunk"
)

// String returns the string representation of Change.
func (c Change) String() string {
	return string(c)
}

// Delta is the size difference of one path between two runs. Unchanged paths
// are not reported.
type Delta struct {
	Path    string    `json:"path"`
	Kind    scan.Kind `json:"kind"`
	OldSize int64     `json:"old_size"`
	NewSize int64     `json:"new_size"`
	Diff    int64     `json:"diff"` // NewSize - OldSize
	Change  Change    `json:"change"`
}
