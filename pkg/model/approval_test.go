package model

import (
	"testing"
)

func TestJSONBValueAndScan(t *testing.T) {
	original := JSONB{
		"approvalId": "a-1",
		"clientName": "Acme Outdoor",
	}

	value, err := original.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned JSONB
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if scanned["approvalId"] != "a-1" || scanned["clientName"] != "Acme Outdoor" {
		t.Fatalf("roundtrip lost data: %v", scanned)
	}
}

func TestJSONBNil(t *testing.T) {
	var j JSONB
	value, err := j.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if value != nil {
		t.Fatalf("nil JSONB must serialize to NULL, got %v", value)
	}

	scanned := JSONB{"stale": true}
	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if scanned != nil {
		t.Fatalf("scanning NULL must reset the map, got %v", scanned)
	}
}

func TestJSONBScanRejectsNonBytes(t *testing.T) {
	var j JSONB
	if err := j.Scan(42); err == nil {
		t.Fatalf("expected error for a non-byte source")
	}
}
