// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/baldenna/dutree/internal/config"
	"github.com/baldenna/dutree/internal/fsutil"
	"github.com/baldenna/dutree/internal/render"
	"github.com/baldenna/dutree/internal/snapshot"
	"github.com/dustin/go-humanize"
)

// storeFlag registers -db with the DUTREE_STORE default shared by the history
// subcommands.
func storeFlag(fs *flag.FlagSet) *string {
	return fs.String("db", config.ParseString(config.EnvStore, ""), "SQLite snapshot store (env DUTREE_STORE)")
}

// openStoreCLI opens an existing store. The read-only subcommands never create
// one, so a mistyped -db fails instead of reporting an empty history.
func openStoreCLI(path string, stderr io.Writer) (*snapshot.Store, int) {
	if path == "" {
		fmt.Fprintln(stderr, "Error: -db or DUTREE_STORE is required")
		return nil, exitUsage
	}
	if err := fsutil.IsRegularFile(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(stderr, "Error: database not found: %s\n", path)
		} else {
			fmt.Fprintf(stderr, "Error: open snapshot store: %v\n", err)
		}
		return nil, exitFailure
	}
	store, err := snapshot.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: open snapshot store: %v\n", err)
		return nil, exitFailure
	}
	return store, exitOK
}

func runHistoryCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dutree history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := storeFlag(fs)
	root := fs.String("root", "", "only list runs of this root")
	limit := fs.Int("limit", 20, "maximum number of runs (0 lists all)")
	asJSON := fs.Bool("json", false, "print runs as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	store, code := openStoreCLI(*dbPath, stderr)
	if store == nil {
		return code
	}
	defer func() { _ = store.Close() }()

	rootFilter := *root
	if rootFilter != "" {
		abs, err := filepath.Abs(rootFilter)
		if err == nil {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}
			rootFilter = abs
		}
	}

	runs, err := store.ListRuns(ctx, rootFilter, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if *asJSON {
		if runs == nil {
			runs = []snapshot.Run{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runs); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs stored.")
		return exitOK
	}
	writeRuns(stdout, runs)
	return exitOK
}

func writeRuns(w io.Writer, runs []snapshot.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSIZE\tENTRIES\tERRORS\tELAPSED\tROOT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.Started.Local().Format(time.DateTime),
			render.FormatBytesBinary(r.TotalSize),
			humanize.Comma(r.Entries),
			r.Errors,
			r.Elapsed().Round(time.Millisecond),
			r.Root,
		)
	}
	_ = tw.Flush()
}
