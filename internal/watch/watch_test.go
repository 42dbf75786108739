// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/baldenna/dutree/internal/scan"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func scanner(root string) ScanFunc {
	w := scan.NewWalker(scan.Options{Parallelism: 2})
	return func(ctx context.Context) (*scan.Result, error) {
		return w.Walk(ctx, root)
	}
}

func TestWatcher_RescansAfterChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	scanFn := scanner(root)

	initial, err := scanFn(context.Background())
	require.NoError(t, err)

	results := make(chan *scan.Result, 8)
	w := New(scanFn, func(_ context.Context, res *scan.Result) error {
		results <- res
		return nil
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, initial) }()

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "new.bin"), make([]byte, 2048), 0o644))

	select {
	case res := <-results:
		assert.Equal(t, int64(2048), res.Root.Size)
		require.NotNil(t, res.Root.Find("sub/new.bin"))
	case <-time.After(5 * time.Second):
		t.Fatal("no rescan after change")
	}

	// Directories created after the first scan are watched after the rescan.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "later"), 0o755))
	drain(results, 300*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "later", "x"), make([]byte, 10), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-results:
			if res.Root.Find("later/x") != nil {
				cancel()
				require.NoError(t, <-done)
				return
			}
		case <-deadline:
			cancel()
			<-done
			t.Fatal("change in new directory not observed")
		}
	}
}

func drain(ch <-chan *scan.Result, d time.Duration) {
	timeout := time.After(d)
	for {
		select {
		case <-ch:
		case <-timeout:
			return
		}
	}
}

func TestWatcher_IgnoredPaths(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	out := filepath.Join(root, "report.txt")
	scanFn := scanner(root)
	initial, err := scanFn(context.Background())
	require.NoError(t, err)

	results := make(chan *scan.Result, 1)
	w := New(scanFn, func(_ context.Context, res *scan.Result) error {
		results <- res
		return nil
	}, WithDebounce(20*time.Millisecond), WithIgnore(out), WithLogger(zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, initial) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(out, []byte("report"), 0o644))

	select {
	case <-results:
		t.Fatal("write to ignored path triggered a rescan")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_ResultErrorStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	scanFn := scanner(root)
	initial, err := scanFn(context.Background())
	require.NoError(t, err)

	boom := errors.New("boom")
	w := New(scanFn, func(context.Context, *scan.Result) error { return boom }, WithDebounce(10*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), initial) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0o644))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_CancelBeforeChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	root := t.TempDir()
	initial, err := scanner(root)(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = New(scanner(root), func(context.Context, *scan.Result) error { return nil }).Run(ctx, initial)
	assert.NoError(t, err)
}

func TestWatcher_IgnoredMatchesTempSiblings(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.txt")
	w := New(nil, nil, WithIgnore(out))

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	assert.True(t, w.ignored(filepath.Join(resolved, "report.txt")))
	assert.True(t, w.ignored(filepath.Join(resolved, ".report.txt1234567")))
	assert.False(t, w.ignored(filepath.Join(resolved, "report.txt.bak")))
	assert.False(t, w.ignored(filepath.Join(resolved, "sub", ".report.txt1")))
}
