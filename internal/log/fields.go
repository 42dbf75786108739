// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldEvent     = "event"

	// Scan fields
	FieldRoot        = "root"
	FieldPath        = "path"
	FieldEntries     = "entries"
	FieldErrors      = "errors"
	FieldParallelism = "parallelism"
	FieldActive      = "active_workers"
	FieldDuration    = "duration"
	FieldSizeBytes   = "size_bytes"

	// Output fields
	FieldFormat = "format"
	FieldOutput = "output"
	FieldStore  = "store"
)
