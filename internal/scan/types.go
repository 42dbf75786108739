// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scan walks a directory tree and computes the cumulative size of
// every directory, optionally fanning subdirectories out to goroutines.
package scan

import (
	"errors"
	"time"
)

// Kind classifies a tree entry.
type Kind string

const (
	KindDir     Kind = "dir"
	KindFile    Kind = "file"
	KindSymlink Kind = "symlink"
	KindOther   Kind = "other" // devices, sockets, pipes
)

// Status represents the outcome of visiting a single entry.
type Status string

const (
	StatusOK         Status = "ok"         // Entry measured
	StatusUnreadable Status = "unreadable" // Directory could not be listed
	StatusError      Status = "error"      // Entry could not be stat'ed
	StatusPartial    Status = "partial"    // Directory listing failed part way; size covers what was read
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// Node is one entry of the scanned tree. The root has Depth 0 and its direct
// children Depth 1.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"` // Relative to the root, slash separated ("" for the root)
	Kind     Kind    `json:"kind"`
	Size     int64   `json:"size"`
	Depth    int     `json:"depth"`
	Status   Status  `json:"status"`
	Err      string  `json:"error,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == KindDir
}

// Marker returns the suffix appended to the name of entries that could not be
// measured.
func (n *Node) Marker() string {
	switch n.Status {
	case StatusUnreadable:
		return "*EMPTY"
	case StatusError:
		return "*ERROR"
	default:
		return ""
	}
}

// Visit calls fn for n and its descendants in pre-order. Returning false from
// fn skips the node's children.
func (n *Node) Visit(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Visit(fn)
	}
}

// Find returns the descendant with the given relative path, or nil.
func (n *Node) Find(path string) *Node {
	var found *Node
	n.Visit(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Path == path {
			found = c
			return false
		}
		return true
	})
	return found
}

// Progress is reported every Options.ProgressEvery entries.
type Progress struct {
	Entries       int64
	ActiveWorkers int64
	Path          string // Directory being listed when the threshold was crossed
}

// ProgressFunc receives progress updates. It may be called concurrently.
type ProgressFunc func(Progress)

// Options controls a walk.
type Options struct {
	Parallelism    int  // Max concurrent directory workers; <= 1 walks sequentially
	OnlyDirs       bool // Drop non-directory children from the tree (sizes still count)
	FollowSymlinks bool // Measure symlinked files by their target; directories are never followed
	ProgressEvery  int64
	Progress       ProgressFunc
}

// DefaultProgressEvery is the progress reporting interval in entries.
const DefaultProgressEvery = 10000

// Stats summarizes a walk.
type Stats struct {
	Files           int64     `json:"files"`
	Dirs            int64     `json:"dirs"`
	Entries         int64     `json:"entries"` // Files + Dirs, the root excluded
	Errors          int64     `json:"errors"`
	ParallelAllowed int64     `json:"parallel_allowed"` // Subdirectories handed to a goroutine
	ParallelSkipped int64     `json:"parallel_skipped"` // Subdirectories walked inline
	Started         time.Time `json:"started"`
	Finished        time.Time `json:"finished"`
}

// Elapsed returns the wall time of the walk.
func (s Stats) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}

// EntriesPerSecond returns the walk throughput. Elapsed time is floored at one
// millisecond so that very fast walks do not divide by zero.
func (s Stats) EntriesPerSecond() float64 {
	elapsed := s.Elapsed()
	if elapsed < time.Millisecond {
		elapsed = time.Millisecond
	}
	return float64(s.Entries) / elapsed.Seconds()
}

// Result is the outcome of a walk.
type Result struct {
	RootPath string `json:"root_path"` // Absolute path that was walked
	Root     *Node  `json:"root"`
	Stats    Stats  `json:"stats"`
}

var (
	// ErrRootNotDir is returned when the walk root exists but is not a directory.
	ErrRootNotDir = errors.New("scan root is not a directory")
)
