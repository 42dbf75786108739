// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scan

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/baldenna/dutree/internal/fsutil"
	xglog "github.com/baldenna/dutree/internal/log"
	"github.com/baldenna/dutree/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/unicode/norm"
)

// Recorder receives per-entry observations. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveEntry(kind Kind)
	ObserveError(status Status)
	ObserveDispatch(inline bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEntry(Kind)    {}
func (nopRecorder) ObserveError(Status)  {}
func (nopRecorder) ObserveDispatch(bool) {}

// WalkerOption customizes a Walker.
type WalkerOption func(*Walker)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) WalkerOption {
	return func(w *Walker) {
		if r != nil {
			w.recorder = r
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) WalkerOption {
	return func(w *Walker) { w.logger = l }
}

// WithTracer overrides the tracer used for walk spans.
func WithTracer(t trace.Tracer) WalkerOption {
	return func(w *Walker) {
		if t != nil {
			w.tracer = t
		}
	}
}

// WithClock overrides the time source used for Stats.
func WithClock(now func() time.Time) WalkerOption {
	return func(w *Walker) {
		if now != nil {
			w.now = now
		}
	}
}

// Walker computes directory sizes. A Walker may be reused for several walks but
// not concurrently with itself.
type Walker struct {
	opts     Options
	logger   zerolog.Logger
	recorder Recorder
	tracer   trace.Tracer
	now      func() time.Time
	readDir  func(string) ([]fs.DirEntry, error)
}

// NewWalker creates a walker with the given options.
func NewWalker(opts Options, options ...WalkerOption) *Walker {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	w := &Walker{
		opts:     opts,
		logger:   xglog.WithComponent("scan"),
		recorder: nopRecorder{},
		tracer:   telemetry.Tracer("dutree/scan"),
		now:      time.Now,
		readDir:  os.ReadDir,
	}
	for _, o := range options {
		o(w)
	}
	return w
}

// walkState holds the counters of a single walk.
type walkState struct {
	sem    *semaphore.Weighted // nil when walking sequentially
	active atomic.Int64

	files   atomic.Int64
	dirs    atomic.Int64
	entries atomic.Int64
	errs    atomic.Int64
	allowed atomic.Int64
	skipped atomic.Int64
}

// Walk measures the tree rooted at root. Unreadable directories and entries that
// cannot be stat'ed are recorded on their nodes and never abort the walk; only
// an invalid root or a cancelled context return an error.
func (w *Walker) Walk(ctx context.Context, root string) (*Result, error) {
	ctx, span := w.tracer.Start(ctx, "scan.walk")
	defer span.End()
	span.SetAttributes(telemetry.ScanAttributes(root, w.opts.Parallelism, w.opts.OnlyDirs)...)

	abs, err := fsutil.ResolveDir(root)
	if err != nil {
		span.SetStatus(codes.Error, "invalid root")
		if errors.Is(err, fsutil.ErrNotDir) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotDir, root)
		}
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}

	st := &walkState{}
	if w.opts.Parallelism > 1 {
		st.sem = semaphore.NewWeighted(int64(w.opts.Parallelism))
	}

	logger := xglog.WithContext(ctx, w.logger)
	logger.Debug().
		Str(xglog.FieldEvent, "scan.start").
		Str(xglog.FieldRoot, abs).
		Int(xglog.FieldParallelism, w.opts.Parallelism).
		Msg("walk started")

	rootNode := &Node{
		Name:   rootName(root, abs),
		Kind:   KindDir,
		Status: StatusOK,
	}

	started := w.now()
	if err := w.walkDir(ctx, st, rootNode, abs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "walk aborted")
		return nil, err
	}
	finished := w.now()

	res := &Result{
		RootPath: abs,
		Root:     rootNode,
		Stats: Stats{
			Files:           st.files.Load(),
			Dirs:            st.dirs.Load(),
			Entries:         st.entries.Load(),
			Errors:          st.errs.Load(),
			ParallelAllowed: st.allowed.Load(),
			ParallelSkipped: st.skipped.Load(),
			Started:         started,
			Finished:        finished,
		},
	}

	span.SetAttributes(telemetry.ScanResultAttributes(res.Stats.Entries, res.Stats.Errors, rootNode.Size)...)
	logger.Debug().
		Str(xglog.FieldEvent, "scan.done").
		Int64(xglog.FieldEntries, res.Stats.Entries).
		Int64(xglog.FieldErrors, res.Stats.Errors).
		Int64(xglog.FieldSizeBytes, rootNode.Size).
		Dur(xglog.FieldDuration, res.Stats.Elapsed()).
		Msg("walk finished")

	return res, nil
}

// walkDir lists dir, measures its entries and recurses into subdirectories.
// Subdirectories go to a new goroutine when a worker slot is free and are walked
// inline otherwise, so a full pool never blocks a parent waiting on children.
func (w *Walker) walkDir(ctx context.Context, st *walkState, dir *Node, abs string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := w.readDir(abs)
	if err != nil {
		if len(entries) == 0 {
			w.recordError(st, dir, StatusUnreadable, err)
			return nil
		}
		w.recordError(st, dir, StatusPartial, err)
	}

	children := make([]*Node, 0, len(entries))
	var subdirs []*Node
	for _, e := range entries {
		child := &Node{
			Name:   e.Name(),
			Path:   path.Join(dir.Path, e.Name()),
			Depth:  dir.Depth + 1,
			Status: StatusOK,
		}
		childAbs := filepath.Join(abs, e.Name())

		if e.IsDir() {
			child.Kind = KindDir
			st.dirs.Add(1)
			subdirs = append(subdirs, child)
		} else {
			w.measure(st, child, e, childAbs)
			st.files.Add(1)
		}
		children = append(children, child)
		w.recorder.ObserveEntry(child.Kind)
		w.tick(st, abs)
	}

	var g errgroup.Group
	var inlineErr error
	for _, sub := range subdirs {
		sub := sub // per-iteration copy; go directive predates Go 1.22 loopvar semantics
		subAbs := filepath.Join(abs, sub.Name)
		if st.sem != nil && st.sem.TryAcquire(1) {
			st.allowed.Add(1)
			w.recorder.ObserveDispatch(false)
			g.Go(func() error {
				st.active.Add(1)
				defer func() {
					st.active.Add(-1)
					st.sem.Release(1)
				}()
				return w.walkDir(ctx, st, sub, subAbs)
			})
			continue
		}
		st.skipped.Add(1)
		w.recorder.ObserveDispatch(true)
		if err := w.walkDir(ctx, st, sub, subAbs); err != nil {
			inlineErr = err
			break
		}
	}
	// Goroutines write into their own nodes only; Wait publishes them.
	if err := g.Wait(); err != nil {
		return err
	}
	if inlineErr != nil {
		return inlineErr
	}

	var total int64
	for _, c := range children {
		total += c.Size
	}
	dir.Size = total

	if w.opts.OnlyDirs {
		children = slices.DeleteFunc(children, func(n *Node) bool { return !n.IsDir() })
	}
	sortChildren(children)
	if len(children) > 0 {
		dir.Children = children
	}
	return nil
}

// measure fills in kind and size for a non-directory entry.
func (w *Walker) measure(st *walkState, n *Node, e fs.DirEntry, abs string) {
	info, err := e.Info()
	if err != nil {
		n.Kind = KindFile
		w.recordError(st, n, StatusError, err)
		return
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular():
		n.Kind = KindFile
	case mode&fs.ModeSymlink != 0:
		n.Kind = KindSymlink
		if w.opts.FollowSymlinks {
			// Linked directories are never descended; their link size is kept.
			if target, err := os.Stat(abs); err == nil && target.Mode().IsRegular() {
				info = target
			}
		}
	default:
		n.Kind = KindOther
	}
	n.Size = info.Size()
}

func (w *Walker) recordError(st *walkState, n *Node, status Status, err error) {
	n.Status = status
	n.Err = err.Error()
	n.Size = 0
	st.errs.Add(1)
	w.recorder.ObserveError(status)
	w.logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "scan."+status.String()).
		Str(xglog.FieldPath, n.Path).
		Msg("entry could not be measured")
}

func (w *Walker) tick(st *walkState, dir string) {
	n := st.entries.Add(1)
	if w.opts.Progress != nil && n%w.opts.ProgressEvery == 0 {
		w.opts.Progress(Progress{
			Entries:       n,
			ActiveWorkers: st.active.Load(),
			Path:          dir,
		})
	}
}

// sortChildren orders entries by size, largest first. Ties are broken by the
// NFC form of the name so output does not depend on goroutine scheduling or on
// how the filesystem normalizes names.
func sortChildren(children []*Node) {
	slices.SortFunc(children, func(a, b *Node) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return strings.Compare(norm.NFC.String(a.Name), norm.NFC.String(b.Name))
	})
}

func rootName(given, abs string) string {
	if given == "" || given == "." {
		return "."
	}
	if name := filepath.Base(abs); name != string(filepath.Separator) {
		return name
	}
	return abs
}
