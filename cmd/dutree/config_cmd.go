// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/baldenna/dutree/internal/config"
	"github.com/baldenna/dutree/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// runConfigCLI validates a configuration file and prints the resolved result.
func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dutree config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if file == "" {
		fmt.Fprintln(stderr, "Usage: dutree config -f config.yaml")
		return exitUsage
	}
	if err := fsutil.IsRegularFile(file); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	loader := config.NewLoader(file)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", file, err)
		return exitUsage
	}
	for _, key := range loader.UnknownEnvKeys() {
		fmt.Fprintf(stderr, "Warning: unknown environment variable %s\n", key)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Validation error in %s:\n  %v\n", file, err)
		return exitUsage
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	_ = enc.Close()
	return exitOK
}
