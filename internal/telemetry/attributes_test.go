// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestScanAttributes(t *testing.T) {
	attrs := ScanAttributes("/srv/data", 4, true)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, ScanRootKey, "/srv/data")
	verifyInt64Attribute(t, attrs, ScanParallelismKey, 4)
	verifyBoolAttribute(t, attrs, ScanOnlyDirsKey, true)
}

func TestScanResultAttributes(t *testing.T) {
	attrs := ScanResultAttributes(120, 2, 4096)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyInt64Attribute(t, attrs, ScanEntriesKey, 120)
	verifyInt64Attribute(t, attrs, ScanErrorsKey, 2)
	verifyInt64Attribute(t, attrs, ScanSizeBytesKey, 4096)
}

func TestOutputAttributes(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		path    string
		wantLen int
	}{
		{name: "stdout", format: "text", path: "", wantLen: 1},
		{name: "file", format: "json", path: "/tmp/report.json", wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := OutputAttributes(tt.format, tt.path)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			verifyAttribute(t, attrs, OutputFormatKey, tt.format)
			if tt.path != "" {
				verifyAttribute(t, attrs, OutputPathKey, tt.path)
			}
		})
	}
}

func TestStoreAttributes(t *testing.T) {
	attrs := StoreAttributes("run-1", 42)

	verifyAttribute(t, attrs, StoreRunIDKey, "run-1")
	verifyInt64Attribute(t, attrs, StoreRowsKey, 42)
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("test error"), "walk_error")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "walk_error")
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyInt64Attribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != expectedValue {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
