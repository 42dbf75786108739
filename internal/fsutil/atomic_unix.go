// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !windows

package fsutil

import (
	"fmt"
	"io"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog/log"
)

// WriteAtomic streams write's output into path with full durability guarantees.
// renameio handles temp file creation, fsync, atomic rename and cleanup on error,
// so readers never observe a half-written report.
func WriteAtomic(path string, write func(io.Writer) error) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(FileMode))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// No-op once the file was committed.
		if err := pendingFile.Cleanup(); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("cleanup pending file")
		}
	}()

	if err := write(pendingFile); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
