// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package snapshot

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// EntryReader is the read side of a Store used by Compare.
type EntryReader interface {
	Entries(ctx context.Context, runID string) ([]Entry, error)
}

// Compare returns the per-path size changes between two runs, largest absolute
// change first. Paths present in only one run are reported as added or removed.
func Compare(ctx context.Context, store EntryReader, oldID, newID string) ([]Delta, error) {
	oldEntries, err := store.Entries(ctx, oldID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", oldID, err)
	}
	newEntries, err := store.Entries(ctx, newID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", newID, err)
	}
	return Diff(oldEntries, newEntries), nil
}

// Diff computes the deltas between two entry sets.
func Diff(oldEntries, newEntries []Entry) []Delta {
	prev := make(map[string]Entry, len(oldEntries))
	for _, e := range oldEntries {
		prev[e.Path] = e
	}

	var deltas []Delta
	for _, e := range newEntries {
		before, ok := prev[e.Path]
		delete(prev, e.Path)
		if !ok {
			deltas = append(deltas, Delta{
				Path:    e.Path,
				Kind:    e.Kind,
				NewSize: e.Size,
				Diff:    e.Size,
				Change:  ChangeAdded,
			})
			continue
		}
		if before.Size == e.Size {
			continue
		}
		d := Delta{
			Path:    e.Path,
			Kind:    e.Kind,
			OldSize: before.Size,
			NewSize: e.Size,
			Diff:    e.Size - before.Size,
			Change:  ChangeGrown,
		}
		if d.Diff < 0 {
			d.Change = ChangeShrunk
		}
		deltas = append(deltas, d)
	}
	for _, e := range prev {
		deltas = append(deltas, Delta{
			Path:    e.Path,
			Kind:    e.Kind,
			OldSize: e.Size,
			Diff:    -e.Size,
			Change:  ChangeRemoved,
		})
	}

	slices.SortFunc(deltas, func(a, b Delta) int {
		if c := cmp.Compare(abs(b.Diff), abs(a.Diff)); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	return deltas
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
