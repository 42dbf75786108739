// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fsutil holds small filesystem helpers shared by the scanner and the
// report writers.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileMode is the permission used for reports and metric textfiles.
const FileMode os.FileMode = 0o644

// ErrNotDir is returned by ResolveDir when the path exists but is not a directory.
var ErrNotDir = errors.New("not a directory")

// ResolveDir returns the absolute, cleaned form of path and checks that it is a
// directory. Symlinks on the root itself are resolved so that "dutree link"
// reports the target's contents.
func ResolveDir(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDir, path)
	}
	return filepath.Clean(resolved), nil
}

// IsRegularFile checks if path exists and is a regular file (not directory, device, etc).
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
