// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes Prometheus collectors for dutree scans.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/baldenna/dutree/internal/fsutil"
	"github.com/baldenna/dutree/internal/scan"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Dispatch modes for dutree_parallel_dispatch_total.
const (
	ModeGoroutine = "goroutine"
	ModeInline    = "inline"
)

// Recorder owns the scan collectors on a private registry. It implements
// scan.Recorder and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	entriesTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	dispatchTotal *prometheus.CounterVec
	scanDuration  prometheus.Histogram
	rootSizeBytes prometheus.Gauge
	scansTotal    prometheus.Counter
}

var _ scan.Recorder = (*Recorder)(nil)

// New creates a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		entriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dutree_entries_total",
			Help: "Entries visited by kind",
		}, []string{"kind"}), // kind=dir|file|symlink|other
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dutree_scan_errors_total",
			Help: "Entries that could not be measured by status",
		}, []string{"status"}), // status=unreadable|error
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dutree_parallel_dispatch_total",
			Help: "Subdirectory dispatch decisions by mode",
		}, []string{"mode"}), // mode=goroutine|inline
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dutree_scan_duration_seconds",
			Help:    "Wall time of a complete scan",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		rootSizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dutree_root_size_bytes",
			Help: "Cumulative size of the scan root (last scan)",
		}),
		scansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dutree_scans_total",
			Help: "Completed scans",
		}),
	}
	r.registry.MustRegister(
		r.entriesTotal,
		r.errorsTotal,
		r.dispatchTotal,
		r.scanDuration,
		r.rootSizeBytes,
		r.scansTotal,
	)
	return r
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveEntry counts a visited entry.
func (r *Recorder) ObserveEntry(kind scan.Kind) {
	r.entriesTotal.WithLabelValues(string(kind)).Inc()
}

// ObserveError counts an entry that could not be measured.
func (r *Recorder) ObserveError(status scan.Status) {
	r.errorsTotal.WithLabelValues(status.String()).Inc()
}

// ObserveDispatch counts a subdirectory dispatch decision.
func (r *Recorder) ObserveDispatch(inline bool) {
	if inline {
		r.dispatchTotal.WithLabelValues(ModeInline).Inc()
		return
	}
	r.dispatchTotal.WithLabelValues(ModeGoroutine).Inc()
}

// ObserveScan records the outcome of a finished scan.
func (r *Recorder) ObserveScan(res *scan.Result) {
	if res == nil {
		return
	}
	r.scansTotal.Inc()
	r.scanDuration.Observe(res.Stats.Elapsed().Seconds())
	r.rootSizeBytes.Set(float64(res.Root.Size))
}

// ObserveDuration records a scan duration without a result, e.g. for aborted scans.
func (r *Recorder) ObserveDuration(d time.Duration) {
	r.scanDuration.Observe(d.Seconds())
}

// Gather returns the current metric families.
func (r *Recorder) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// WriteText writes all metric families in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	mfs, err := r.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile atomically replaces path with the current metrics so that a
// node-exporter textfile collector never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	return fsutil.WriteAtomic(path, r.WriteText)
}
