// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package watch rescans a tree whenever one of its directories changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	xglog "github.com/baldenna/dutree/internal/log"
	"github.com/baldenna/dutree/internal/scan"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// ScanFunc performs one scan of the watched root.
type ScanFunc func(ctx context.Context) (*scan.Result, error)

// ResultFunc receives every successful rescan. An error stops the watcher.
type ResultFunc func(ctx context.Context, res *scan.Result) error

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period between the last change and a rescan.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore drops events for the given files, typically outputs written
// inside the watched tree.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p == "" {
				continue
			}
			abs, err := filepath.Abs(p)
			if err != nil {
				continue
			}
			// Events carry the resolved directory path the scan registered.
			if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
				abs = filepath.Join(dir, filepath.Base(abs))
			}
			w.ignore[abs] = struct{}{}
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher registers every scanned directory with fsnotify and rescans after
// changes settle. The watch set is rebuilt after each scan so new directories
// are picked up.
type Watcher struct {
	scan     ScanFunc
	onResult ResultFunc
	debounce time.Duration
	ignore   map[string]struct{}
	logger   zerolog.Logger
}

// New creates a watcher.
func New(scanFn ScanFunc, onResult ResultFunc, opts ...Option) *Watcher {
	w := &Watcher{
		scan:     scanFn,
		onResult: onResult,
		debounce: DefaultDebounce,
		ignore:   make(map[string]struct{}),
		logger:   xglog.WithComponent("watch"),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run watches the directories of initial until ctx is cancelled. It returns nil
// on cancellation and the error of a failed rescan of the root or of onResult.
func (w *Watcher) Run(ctx context.Context, initial *scan.Result) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	n := w.rebuild(fw, initial)
	w.logger.Info().
		Str(xglog.FieldEvent, "watch.started").
		Str(xglog.FieldRoot, initial.RootPath).
		Int("dirs", n).
		Dur("debounce", w.debounce).
		Msg("watching tree for changes")

	// fire is nil while no rescan is pending.
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(xglog.FieldEvent, "watch.stopped").Msg("watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().
				Str(xglog.FieldEvent, "watch.changed").
				Str(xglog.FieldPath, event.Name).
				Str("op", event.Op.String()).
				Msg("tree changed")

			// Debounce: reset timer on each event
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			res, err := w.scan(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, scan.ErrRootNotDir) || errors.Is(err, context.Canceled) {
					return err
				}
				w.logger.Error().
					Err(err).
					Str(xglog.FieldEvent, "watch.rescan_failed").
					Msg("rescan failed")
				return fmt.Errorf("rescan: %w", err)
			}
			if err := w.onResult(ctx, res); err != nil {
				return err
			}
			w.rebuild(fw, res)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "watch.error").
				Msg("watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return !w.ignored(filepath.Clean(event.Name))
}

// ignored matches an ignored file and the temporary siblings created while it
// is replaced atomically.
func (w *Watcher) ignored(name string) bool {
	if _, ok := w.ignore[name]; ok {
		return true
	}
	dir, base := filepath.Split(name)
	for p := range w.ignore {
		pdir, pbase := filepath.Split(p)
		if dir == pdir && strings.HasPrefix(base, "."+pbase) {
			return true
		}
	}
	return false
}

// rebuild replaces the watch set with the readable directories of res and
// returns how many were added.
func (w *Watcher) rebuild(fw *fsnotify.Watcher, res *scan.Result) int {
	for _, p := range fw.WatchList() {
		_ = fw.Remove(p)
	}

	added := 0
	res.Root.Visit(func(n *scan.Node) bool {
		if !n.IsDir() || n.Status == scan.StatusUnreadable {
			return false
		}
		dir := filepath.Join(res.RootPath, filepath.FromSlash(n.Path))
		if err := fw.Add(dir); err != nil {
			w.logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "watch.add_failed").
				Str(xglog.FieldPath, dir).
				Msg("cannot watch directory")
			return true
		}
		added++
		return true
	})
	return added
}
