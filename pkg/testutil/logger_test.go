package testutil

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewTestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewTestLogger(buf)
	if logger == nil {
		t.Fatal("NewTestLogger returned nil")
	}

	logger.Debug("test message", "key", "value")
	if buf.Len() == 0 {
		t.Error("Logger did not write debug output to buffer")
	}

	if NewTestLogger(nil) == nil {
		t.Error("NewTestLogger returned nil with nil writer")
	}
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	if logger == nil {
		t.Fatal("DiscardLogger returned nil")
	}

	// must not panic
	logger.Info("test message", "key", "value")
	logger.Error("error message", "key", "value")
}

func TestCaptureLogger(t *testing.T) {
	logger, buf := CaptureLogger()
	logger.Info("tool call", "tool", "find_nearby_pois")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("captured output is not JSON: %v", err)
	}
	if entry["tool"] != "find_nearby_pois" || entry["msg"] != "tool call" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestStore(t *testing.T) {
	first := Store(t)
	if first.Stations.Len() == 0 {
		t.Fatal("embedded store has no stations")
	}
	if Store(t) != first {
		t.Error("Store should return the shared instance")
	}
}

func TestCallToolRequest(t *testing.T) {
	req := CallToolRequest("nearby_transit_stops", map[string]any{"location": "33.8938,35.5018"})
	if req.Params.Name != "nearby_transit_stops" {
		t.Errorf("name = %q", req.Params.Name)
	}
	if req.Params.Arguments["location"] != "33.8938,35.5018" {
		t.Errorf("arguments = %v", req.Params.Arguments)
	}
}
