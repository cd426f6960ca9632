package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "info", "json")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		logger.Debug("hidden")
		logger.Info("registration admitted", "event_id", "e1")

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
		}
		if line["msg"] != "registration admitted" || line["event_id"] != "e1" {
			t.Errorf("unexpected log line %v", line)
		}
	})

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, "DEBUG", "text")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		logger.Debug("visible")
		if !strings.Contains(buf.String(), "msg=visible") {
			t.Errorf("expected debug line, got %q", buf.String())
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := New(&bytes.Buffer{}, "loud", "json"); err == nil {
			t.Error("expected error for unknown level")
		}
		if _, err := New(&bytes.Buffer{}, "info", "xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
