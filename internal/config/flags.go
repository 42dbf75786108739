// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"flag"
	"time"

	"github.com/baldenna/dutree/internal/render"
)

// Flags holds the command line overrides for a scan. Only flags that were set
// explicitly are applied, so an unset flag never masks the environment or file.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath     string
	Parallel       int
	MaxDepth       int
	OnlyDirs       bool
	Verbose        bool
	FollowSymlinks bool
	Format         string
	SI             bool
	Output         string
	LogLevel       string
	StorePath      string
	MetricsFile    string
	Watch          bool
	WatchDebounce  time.Duration
	ShowVersion    bool
}

// RegisterFlags defines the scan flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := Defaults()
	f := &Flags{fs: fs}

	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML configuration file")
	fs.IntVar(&f.Parallel, "parallel", d.Parallel, "maximum number of concurrent directory workers")
	fs.IntVar(&f.MaxDepth, "max-depth", d.MaxDepth, "maximum printed depth (the root's children are level 0)")
	fs.BoolVar(&f.OnlyDirs, "only-dirs", d.OnlyDirs, "print directories only")
	fs.BoolVar(&f.Verbose, "verbose", d.Verbose, "print parallel dispatch counters")
	fs.BoolVar(&f.FollowSymlinks, "follow-symlinks", d.FollowSymlinks, "measure symlinked files by their target")
	fs.StringVar(&f.Format, "format", d.Format, "report format (text|json)")
	fs.BoolVar(&f.SI, "si", false, "use decimal (SI) size units instead of binary")
	fs.StringVar(&f.Output, "output", d.Output, "write the report to this file instead of stdout")
	fs.StringVar(&f.LogLevel, "log-level", d.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&f.StorePath, "db", d.StorePath, "SQLite snapshot store; empty disables history")
	fs.StringVar(&f.MetricsFile, "metrics-file", d.MetricsFile, "write Prometheus metrics to this textfile")
	fs.BoolVar(&f.Watch, "watch", d.Watch, "rescan when the tree changes")
	fs.DurationVar(&f.WatchDebounce, "watch-debounce", d.WatchDebounce, "quiet period before a rescan in watch mode")
	fs.BoolVar(&f.ShowVersion, "version", false, "print version and exit")

	return f
}

// Apply copies every explicitly set flag onto cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "parallel":
			cfg.Parallel = f.Parallel
		case "max-depth":
			cfg.MaxDepth = f.MaxDepth
		case "only-dirs":
			cfg.OnlyDirs = f.OnlyDirs
		case "verbose":
			cfg.Verbose = f.Verbose
		case "follow-symlinks":
			cfg.FollowSymlinks = f.FollowSymlinks
		case "format":
			cfg.Format = f.Format
		case "si":
			if f.SI {
				cfg.Units = string(render.UnitsSI)
			} else {
				cfg.Units = string(render.UnitsBinary)
			}
		case "output":
			cfg.Output = f.Output
		case "log-level":
			cfg.LogLevel = f.LogLevel
		case "db":
			cfg.StorePath = f.StorePath
		case "metrics-file":
			cfg.MetricsFile = f.MetricsFile
		case "watch":
			cfg.Watch = f.Watch
		case "watch-debounce":
			cfg.WatchDebounce = f.WatchDebounce
		}
	})
	if root := f.fs.Arg(0); root != "" {
		cfg.Root = root
	}
}
