package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "document", 3)

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info record written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "msg=shown document=3") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestNewWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "import.log")
	log, closer, err := New(Options{File: path, Console: &buf})
	if err != nil {
		t.Fatal(err)
	}

	log.Info("batch done", "processed", 500)
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "processed=500") {
		t.Errorf("log file = %s", data)
	}
	if !strings.Contains(buf.String(), "processed=500") {
		t.Errorf("console = %s", buf.String())
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
