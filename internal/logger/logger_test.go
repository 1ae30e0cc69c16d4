package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	clock = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
		clock = time.Now
	})
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t)

	Info("indexed %d segments", 3)
	Warn("slow")
	Error("failed: %v", "boom")

	want := "2024-03-01T12:00:00.000 [INFO] indexed 3 segments\n" +
		"2024-03-01T12:00:00.000 [WARN] slow\n" +
		"2024-03-01T12:00:00.000 [ERROR] failed: boom\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestDebugNeedsVerbose(t *testing.T) {
	buf := capture(t)

	Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug printed without verbose: %q", buf.String())
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Fatalf("expected verbose mode")
	}
	Debug("shown %s", "now")
	if !strings.Contains(buf.String(), "[DEBUG] shown now") {
		t.Fatalf("debug line missing: %q", buf.String())
	}
}
