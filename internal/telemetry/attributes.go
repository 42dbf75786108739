// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Scan attributes
	ScanRootKey        = "scan.root"
	ScanParallelismKey = "scan.parallelism"
	ScanOnlyDirsKey    = "scan.only_dirs"
	ScanEntriesKey     = "scan.entries"
	ScanErrorsKey      = "scan.errors"
	ScanSizeBytesKey   = "scan.size_bytes"

	// Output attributes
	OutputFormatKey = "output.format"
	OutputPathKey   = "output.path"

	// Store attributes
	StoreRunIDKey = "store.run_id"
	StoreRowsKey  = "store.rows"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ScanAttributes describes the scan request.
func ScanAttributes(root string, parallelism int, onlyDirs bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ScanRootKey, root),
		attribute.Int(ScanParallelismKey, parallelism),
		attribute.Bool(ScanOnlyDirsKey, onlyDirs),
	}
}

// ScanResultAttributes describes a finished scan.
func ScanResultAttributes(entries, errors, sizeBytes int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(ScanEntriesKey, entries),
		attribute.Int64(ScanErrorsKey, errors),
		attribute.Int64(ScanSizeBytesKey, sizeBytes),
	}
}

// OutputAttributes describes where a report is rendered. An empty path means stdout.
func OutputAttributes(format, path string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	attrs = append(attrs, attribute.String(OutputFormatKey, format))
	if path != "" {
		attrs = append(attrs, attribute.String(OutputPathKey, path))
	}
	return attrs
}

// StoreAttributes describes a snapshot write.
func StoreAttributes(runID string, rows int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StoreRunIDKey, runID),
		attribute.Int(StoreRowsKey, rows),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
