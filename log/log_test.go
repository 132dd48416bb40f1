package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// newTestLogger returns a Logger that writes JSON into buf.
func newTestLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	h := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
	return NewWithHandler(h)
}

func TestLoggerModule(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, slog.LevelDebug)
	child := l.Module("vm")

	child.Info("executing")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	if entry["module"] != "vm" {
		t.Fatalf("module = %v, want %q", entry["module"], "vm")
	}
	if entry["msg"] != "executing" {
		t.Fatalf("msg = %v, want %q", entry["msg"], "executing")
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, slog.LevelDebug)
	child := l.Module("state").With("addr", "0x01")

	child.Info("account created")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	if entry["module"] != "state" {
		t.Fatalf("module = %v, want %q", entry["module"], "state")
	}
	if entry["addr"] != "0x01" {
		t.Fatalf("addr = %v, want %q", entry["addr"], "0x01")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, slog.LevelWarn)

	l.Debug("dropped")
	l.Info("dropped too")
	if buf.Len() != 0 {
		t.Fatalf("low-level entries were not filtered: %s", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn entry was filtered out")
	}
}

func TestVerbosityLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{0, slog.LevelError},
		{2, slog.LevelWarn},
		{3, slog.LevelInfo},
		{5, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := VerbosityLevel(tt.verbosity); got != tt.want {
			t.Errorf("VerbosityLevel(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestSetDefault(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	var buf bytes.Buffer
	SetDefault(newTestLogger(&buf, slog.LevelInfo))
	Info("via default")
	if buf.Len() == 0 {
		t.Fatal("default logger did not receive the entry")
	}
}
