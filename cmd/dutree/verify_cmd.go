// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/baldenna/dutree/internal/persistence/sqlite"
)

func runVerifyCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dutree verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := storeFlag(fs)
	mode := fs.String("mode", sqlite.CheckQuick, "verification mode: quick or full")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	m := strings.ToLower(strings.TrimSpace(*mode))
	if m != sqlite.CheckQuick && m != sqlite.CheckFull {
		fmt.Fprintf(stderr, "Error: invalid mode %q. Use 'quick' or 'full'.\n", *mode)
		return exitUsage
	}

	store, code := openStoreCLI(*dbPath, stderr)
	if store == nil {
		return code
	}
	defer func() { _ = store.Close() }()

	issues, err := store.Verify(ctx, m)
	if err != nil {
		fmt.Fprintf(stderr, "Error: verification interrupted: %v\n", err)
		return exitFailure
	}
	if issues != nil {
		fmt.Fprintf(stderr, "Corruption detected in %s:\n", *dbPath)
		for _, issue := range issues {
			fmt.Fprintf(stderr, "  - %s\n", issue)
		}
		return exitFailure
	}

	fmt.Fprintf(stdout, "%s: ok\n", *dbPath)
	return exitOK
}
