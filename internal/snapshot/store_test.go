// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	xglog "github.com/baldenna/dutree/internal/log"
	"github.com/baldenna/dutree/internal/persistence/sqlite"
	"github.com/baldenna/dutree/internal/scan"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var n int
	s.newID = func() string {
		n++
		return fmt.Sprintf("run-%02d", n)
	}
	return s
}

// result builds a scan result for root with the given sizes:
//
//	root
//	├── a (dir)
//	│   ├── a/x (file)
//	│   └── a/deep (dir)
//	│       └── a/deep/y (file)
//	└── b (file)
func result(root string, started time.Time, x, y, b int64) *scan.Result {
	deepY := &scan.Node{Name: "y", Path: "a/deep/y", Kind: scan.KindFile, Size: y, Depth: 3, Status: scan.StatusOK}
	deep := &scan.Node{Name: "deep", Path: "a/deep", Kind: scan.KindDir, Size: y, Depth: 2, Status: scan.StatusOK, Children: []*scan.Node{deepY}}
	ax := &scan.Node{Name: "x", Path: "a/x", Kind: scan.KindFile, Size: x, Depth: 2, Status: scan.StatusOK}
	a := &scan.Node{Name: "a", Path: "a", Kind: scan.KindDir, Size: x + y, Depth: 1, Status: scan.StatusOK, Children: []*scan.Node{ax, deep}}
	bn := &scan.Node{Name: "b", Path: "b", Kind: scan.KindFile, Size: b, Depth: 1, Status: scan.StatusOK}
	return &scan.Result{
		RootPath: root,
		Root:     &scan.Node{Name: ".", Kind: scan.KindDir, Size: x + y + b, Status: scan.StatusOK, Children: []*scan.Node{a, bn}},
		Stats: scan.Stats{
			Files:    3,
			Dirs:     2,
			Entries:  5,
			Started:  started,
			Finished: started.Add(1500 * time.Millisecond),
		},
	}
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStore_SaveAndGetRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.SaveRun(ctx, result("/data", t0, 10, 20, 30), 100)
	require.NoError(t, err)
	assert.Equal(t, "run-01", run.ID)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Fatalf("stored run differs (-saved +loaded):\n%s", diff)
	}
	assert.Equal(t, int64(60), got.TotalSize)
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed())

	entries, err := s.Entries(ctx, run.ID)
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"a", "a/deep", "a/deep/y", "a/x", "b"}, paths)
	assert.Equal(t, scan.KindDir, entries[0].Kind)
	assert.Equal(t, scan.StatusOK, entries[0].Status)
}

func TestStore_SaveRunLogsSnapshot(t *testing.T) {
	var logs bytes.Buffer
	xglog.Configure(xglog.Config{Level: "debug", Output: &logs})
	t.Cleanup(func() { xglog.Configure(xglog.Config{Level: "info"}) })

	s := openStore(t)
	ctx := xglog.ContextWithRunID(context.Background(), "inv-1")

	_, err := s.SaveRun(ctx, result("/data", t0, 10, 20, 30), 100)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `"event":"snapshot.saved"`)
	assert.Contains(t, out, `"component":"snapshot"`)
	assert.Contains(t, out, `"snapshot_id":"run-01"`)
	assert.Contains(t, out, `"run_id":"inv-1"`)
	assert.Contains(t, out, `"entries":5`)
}

func TestStore_SaveRunHonorsMaxDepth(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// maxDepth 0 keeps the root's direct children only.
	run, err := s.SaveRun(ctx, result("/data", t0, 10, 20, 30), 0)
	require.NoError(t, err)

	entries, err := s.Entries(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Path)
	assert.Equal(t, "b", entries[1].Path)
}

func TestStore_GetRunNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)

	_, err = s.Entries(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)
}

func TestStore_ListRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, result("/data", t0.Add(time.Duration(i)*time.Hour), 1, 1, 1), 100)
		require.NoError(t, err)
	}
	_, err := s.SaveRun(ctx, result("/other", t0.Add(30*time.Minute), 1, 1, 1), 100)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, "/data", 0)
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"run-03", "run-02", "run-01"}, ids)

	runs, err = s.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-03", runs[0].ID)
	assert.Equal(t, "run-02", runs[1].ID)

	runs, err = s.ListRuns(ctx, "/missing", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_DeleteRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.SaveRun(ctx, result("/data", t0, 1, 2, 3), 100)
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, run.ID))

	_, err = s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, run.ID), ErrRunNotFound)
}

func TestStore_Verify(t *testing.T) {
	s := openStore(t)
	_, err := s.SaveRun(context.Background(), result("/data", t0, 1, 2, 3), 100)
	require.NoError(t, err)

	issues, err := s.Verify(context.Background(), sqlite.CheckQuick)
	require.NoError(t, err)
	assert.Nil(t, issues)
}

func TestStore_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	run, err := s.SaveRun(context.Background(), result("/data", t0, 1, 2, 3), 100)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Root, got.Root)
}

func TestCompare(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	before, err := s.SaveRun(ctx, result("/data", t0, 10, 20, 30), 100)
	require.NoError(t, err)
	after, err := s.SaveRun(ctx, result("/data", t0.Add(time.Hour), 10, 500, 5), 100)
	require.NoError(t, err)

	deltas, err := Compare(ctx, s, before.ID, after.ID)
	require.NoError(t, err)

	want := []Delta{
		{Path: "a", Kind: scan.KindDir, OldSize: 30, NewSize: 510, Diff: 480, Change: ChangeGrown},
		{Path: "a/deep", Kind: scan.KindDir, OldSize: 20, NewSize: 500, Diff: 480, Change: ChangeGrown},
		{Path: "a/deep/y", Kind: scan.KindFile, OldSize: 20, NewSize: 500, Diff: 480, Change: ChangeGrown},
		{Path: "b", Kind: scan.KindFile, OldSize: 30, NewSize: 5, Diff: -25, Change: ChangeShrunk},
	}
	if diff := cmp.Diff(want, deltas); diff != "" {
		t.Fatalf("deltas mismatch (-want +got):\n%s", diff)
	}

	_, err = Compare(ctx, s, before.ID, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDiff_AddedAndRemoved(t *testing.T) {
	oldEntries := []Entry{
		{Path: "gone", Kind: scan.KindDir, Size: 100},
		{Path: "same", Kind: scan.KindFile, Size: 7},
	}
	newEntries := []Entry{
		{Path: "same", Kind: scan.KindFile, Size: 7},
		{Path: "fresh", Kind: scan.KindFile, Size: 40},
	}

	want := []Delta{
		{Path: "gone", Kind: scan.KindDir, OldSize: 100, Diff: -100, Change: ChangeRemoved},
		{Path: "fresh", Kind: scan.KindFile, NewSize: 40, Diff: 40, Change: ChangeAdded},
	}
	if diff := cmp.Diff(want, Diff(oldEntries, newEntries)); diff != "" {
		t.Fatalf("deltas mismatch (-want +got):\n%s", diff)
	}
}
