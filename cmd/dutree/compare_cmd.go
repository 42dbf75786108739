// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/baldenna/dutree/internal/render"
	"github.com/baldenna/dutree/internal/snapshot"
)

func runCompareCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dutree compare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := storeFlag(fs)
	limit := fs.Int("limit", 50, "maximum number of changed paths (0 prints all)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "Usage: dutree compare [-db FILE] [-limit N] OLD NEW")
		return exitUsage
	}
	oldID, newID := fs.Arg(0), fs.Arg(1)

	store, code := openStoreCLI(*dbPath, stderr)
	if store == nil {
		return code
	}
	defer func() { _ = store.Close() }()

	oldRun, err := store.GetRun(ctx, oldID)
	if err == nil {
		_, err = store.GetRun(ctx, newID)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, snapshot.ErrRunNotFound) {
			return exitUsage
		}
		return exitFailure
	}

	deltas, err := snapshot.Compare(ctx, store, oldID, newID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if len(deltas) == 0 {
		fmt.Fprintf(stdout, "No changes under %s.\n", oldRun.Root)
		return exitOK
	}
	if *limit > 0 && len(deltas) > *limit {
		deltas = deltas[:*limit]
	}
	writeDeltas(stdout, deltas)
	return exitOK
}

func writeDeltas(w io.Writer, deltas []snapshot.Delta) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANGE\tDIFF\tOLD\tNEW\tPATH")
	for _, d := range deltas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.Change,
			signedSize(d.Diff),
			render.FormatBytesBinary(d.OldSize),
			render.FormatBytesBinary(d.NewSize),
			d.Path,
		)
	}
	_ = tw.Flush()
}

func signedSize(n int64) string {
	if n > 0 {
		return "+" + render.FormatBytesBinary(n)
	}
	return render.FormatBytesBinary(n)
}
