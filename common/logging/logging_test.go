package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONRespectsLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info(context.Background(), "dropped")
	log.With(String("component", "globe")).Warn(context.Background(), "arc rejected", Int("index", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one log line at warn level, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "arc rejected" {
		t.Errorf("msg = %v, want %q", entry["msg"], "arc rejected")
	}
	if entry["component"] != "globe" {
		t.Errorf("component = %v, want globe", entry["component"])
	}
	if entry["index"] != float64(3) {
		t.Errorf("index = %v, want 3", entry["index"])
	}
}

func TestNoop_DiscardsEverything(t *testing.T) {
	log := Noop().With(String("k", "v"))
	// Must not panic, even with a nil context.
	log.Error(nil, "ignored", Err(nil))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).Level().String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
