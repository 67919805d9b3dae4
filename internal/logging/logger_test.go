package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	off := false
	logger, err := New(Options{Level: "info", Output: &buf, Color: &off})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	logger.Debug("hidden")
	logger.With("run", "ab12").Info("styles wrote files", "count", 2, "dest", "dist/assets/css", "took", 1500*time.Microsecond)
	logger.Error("push failed", "err", errors.New("exit status 128"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	for _, want := range []string{
		"styles wrote files run=ab12 count=2 dest=dist/assets/css took=2ms",
		`push failed err="exit status 128"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors should be disabled")
	}
	if !strings.HasPrefix(out, "[") {
		t.Errorf("line should start with a timestamp: %q", out)
	}
}

func TestNew_ConsoleGroups(t *testing.T) {
	var buf bytes.Buffer
	off := false
	logger, _ := New(Options{Output: &buf, Color: &off})

	logger.WithGroup("task").Info("done", "name", "build", slog.Group("files", "written", 3))
	if !strings.Contains(buf.String(), "task.name=build task.files.written=3") {
		t.Errorf("grouped attrs not flattened: %q", buf.String())
	}
}

func TestNew_ConsoleColor(t *testing.T) {
	var buf bytes.Buffer
	on := true
	logger, _ := New(Options{Output: &buf, Color: &on})
	logger.Error("boom")
	if !strings.Contains(buf.String(), ansiRed+"boom"+ansiReset) {
		t.Errorf("error message should be red: %q", buf.String())
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Debug("watching", "pattern", "src/**/*.ejs")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "watching" || rec["pattern"] != "src/**/*.ejs" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled for errors")
	}
}
