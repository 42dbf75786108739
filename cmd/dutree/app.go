// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/baldenna/dutree/internal/config"
	"github.com/baldenna/dutree/internal/fsutil"
	xglog "github.com/baldenna/dutree/internal/log"
	"github.com/baldenna/dutree/internal/metrics"
	"github.com/baldenna/dutree/internal/render"
	"github.com/baldenna/dutree/internal/scan"
	"github.com/baldenna/dutree/internal/snapshot"
	"github.com/baldenna/dutree/internal/telemetry"
	"github.com/baldenna/dutree/internal/watch"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// app wires one scan invocation: walk, render, persist, export.
type app struct {
	cfg      config.Config
	stdout   io.Writer
	walker   *scan.Walker
	recorder *metrics.Recorder
	store    *snapshot.Store // nil when history is disabled
	tracer   trace.Tracer
	progress *rate.Sometimes
}

func newApp(cfg config.Config, stdout io.Writer) (*app, error) {
	a := &app{
		cfg:      cfg,
		stdout:   stdout,
		recorder: metrics.New(),
		tracer:   telemetry.Tracer("dutree/cli"),
		progress: &rate.Sometimes{Interval: time.Second},
	}

	opts := cfg.ScanOptions()
	opts.Progress = a.reportProgress
	a.walker = scan.NewWalker(opts, scan.WithRecorder(a.recorder))

	if cfg.StorePath != "" {
		store, err := snapshot.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		a.store = store
	}
	return a, nil
}

// Close releases the snapshot store.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// Run scans once, publishes the result and, in watch mode, keeps rescanning
// until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	res, err := a.scan(ctx)
	if err != nil {
		return err
	}
	if err := a.publish(ctx, res); err != nil {
		return err
	}
	if !a.cfg.Watch {
		return nil
	}

	ignore := []string{a.cfg.Output, a.cfg.MetricsFile}
	if a.cfg.StorePath != "" {
		ignore = append(ignore, a.cfg.StorePath, a.cfg.StorePath+"-wal", a.cfg.StorePath+"-shm", a.cfg.StorePath+"-journal")
	}
	w := watch.New(a.scan, a.publish,
		watch.WithDebounce(a.cfg.WatchDebounce),
		watch.WithIgnore(ignore...),
	)
	return w.Run(ctx, res)
}

func (a *app) scan(ctx context.Context) (*scan.Result, error) {
	started := time.Now()
	res, err := a.walker.Walk(ctx, a.cfg.Root)
	if err != nil {
		a.recorder.ObserveDuration(time.Since(started))
		return nil, err
	}
	a.recorder.ObserveScan(res)
	return res, nil
}

// publish renders res and stores it in the history and metrics outputs.
func (a *app) publish(ctx context.Context, res *scan.Result) error {
	if err := a.render(ctx, res); err != nil {
		return err
	}

	logger := xglog.WithContext(ctx, xglog.Derive(func(c *zerolog.Context) {
		*c = c.Str(xglog.FieldComponent, "cli").Str(xglog.FieldRoot, res.RootPath)
	}))
	if a.store != nil {
		run, err := a.store.SaveRun(ctx, res, a.cfg.MaxDepth)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		logger.Info().
			Str(xglog.FieldEvent, "snapshot.saved").
			Str("snapshot_id", run.ID).
			Str(xglog.FieldStore, a.cfg.StorePath).
			Msg("scan stored")
	}

	if a.cfg.MetricsFile != "" {
		if err := a.recorder.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics file: %w", err)
		}
	}

	logger.Info().
		Str(xglog.FieldEvent, "scan.completed").
		Int64(xglog.FieldEntries, res.Stats.Entries).
		Int64(xglog.FieldErrors, res.Stats.Errors).
		Int64(xglog.FieldSizeBytes, res.Root.Size).
		Dur(xglog.FieldDuration, res.Stats.Elapsed()).
		Msg("scan completed")
	return nil
}

func (a *app) render(ctx context.Context, res *scan.Result) error {
	_, span := a.tracer.Start(ctx, "render.write")
	defer span.End()
	span.SetAttributes(telemetry.OutputAttributes(a.cfg.Format, a.cfg.Output)...)

	opts := a.cfg.RenderOptions()
	write := func(w io.Writer) error { return render.Write(w, res, opts) }

	var err error
	if a.cfg.Output == "" {
		err = write(a.stdout)
	} else {
		err = fsutil.WriteAtomic(a.cfg.Output, write)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(err, "render")...)
		span.SetStatus(codes.Error, "render failed")
		return fmt.Errorf("write report: %w", err)
	}
	if a.cfg.Output != "" {
		logger := xglog.WithComponentFromContext(ctx, "cli")
		logger.Debug().
			Str(xglog.FieldEvent, "report.written").
			Str(xglog.FieldFormat, a.cfg.Format).
			Str(xglog.FieldOutput, a.cfg.Output).
			Msg("report written")
	}
	return nil
}

// reportProgress logs walker progress at most once per second.
func (a *app) reportProgress(p scan.Progress) {
	a.progress.Do(func() {
		logger := xglog.WithComponent("scan")
		logger.Info().
			Str(xglog.FieldEvent, "scan.progress").
			Int64(xglog.FieldEntries, p.Entries).
			Int64(xglog.FieldActive, p.ActiveWorkers).
			Str(xglog.FieldPath, p.Path).
			Msg("scanning")
	})
}
