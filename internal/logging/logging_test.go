package logging

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesLogfmtLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Debug).(*logfmtLogger)
	logger.now = func() time.Time { return time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC) }

	logger.With(F("component", "engine")).Info("engine_started", F("routine", "Morning Launch"), F("steps", 5))

	got := strings.TrimSpace(buf.String())
	want := `ts=2026-10-19T07:00:00Z level=info msg=engine_started component=engine routine="Morning Launch" steps=5`
	if got != want {
		t.Fatalf("unexpected line:\n got: %s\nwant: %s", got, want)
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn)
	logger.Info("ignored")
	logger.Debug("ignored")
	logger.Warn("kept", Err(errors.New("boom")))
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("expected error field, got %q", buf.String())
	}
	if logger.Enabled(Info) {
		t.Fatalf("info should be disabled at warn level")
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	logger := Nop()
	if logger.Enabled(Error) {
		t.Fatalf("nop logger should not be enabled")
	}
	logger.Error("nothing")
	if OrNop(nil) == nil {
		t.Fatalf("expected fallback logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"":        Info,
		"verbose": Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNewFileCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "daemon.log")
	logger, closer, err := NewFile(path, Info)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer closer.Close()
	logger.Info("daemon_started")
	if _, _, err := NewFile(" ", Info); err == nil {
		t.Fatalf("expected error for blank path")
	}
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if len(a) != 16 || a == b {
		t.Fatalf("expected distinct 16 char ids, got %q and %q", a, b)
	}
}
