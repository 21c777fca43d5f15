package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestSlogLogger_WritesJSONWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf)

	log.Info(context.Background(), "hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestSlogLogger_WithAddsPermanentAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf).With("module", "test")

	log.Error(context.Background(), "boom")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if rec["module"] != "test" || rec["level"] != "ERROR" {
		t.Fatalf("unexpected record: %v", rec)
	}
}
