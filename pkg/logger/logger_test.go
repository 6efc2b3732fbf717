package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARN")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init("Error")
	if got := LevelString(); got != "error" {
		t.Fatalf("LevelString() = %q, want %q", got, "error")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg %d", 42)

	out := buf.String()
	if strings.Contains(out, "debug-msg") {
		t.Fatalf("debug messages should be suppressed at warn level")
	}
	if strings.Contains(out, "info-msg") {
		t.Fatalf("info messages should be suppressed at warn level")
	}
	if !strings.Contains(out, "warn-msg") {
		t.Fatalf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "error-msg 42") {
		t.Fatalf("error message missing: %q", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("expected structured level field, got: %q", out)
	}

	Init("info")
	buf.Reset()
	Infof("hello %s", "world")
	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("info message expected at info level, got: %q", buf.String())
	}
}

func TestSetOutputKeepsLevel(t *testing.T) {
	Init("error")
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer Init("info")

	if got := LevelString(); got != "error" {
		t.Fatalf("LevelString() = %q after SetOutput, want %q", got, "error")
	}
	Warnf("quiet")
	if buf.Len() != 0 {
		t.Fatalf("warn should be suppressed at error level, got: %q", buf.String())
	}
}
