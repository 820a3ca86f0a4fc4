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
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestSetupRoutesByLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "soporte.log")
	cleanup, err := Setup(Options{Level: "info", File: path, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	slog.Debug("hidden")
	slog.Info("listing products", "page", 1)
	slog.Error("request failed")
	cleanup()

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("expected debug record to be filtered")
	}
	if !strings.Contains(stdout.String(), "listing products") || strings.Contains(stdout.String(), "request failed") {
		t.Errorf("unexpected stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "request failed") {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "listing products") || !strings.Contains(string(data), "request failed") {
		t.Errorf("expected both records in file, got %q", data)
	}
}

func TestSetupQuiet(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var stdout bytes.Buffer
	cleanup, err := Setup(Options{Quiet: true, Stdout: &stdout})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer cleanup()

	slog.Info("should not print")
	if stdout.Len() != 0 {
		t.Errorf("expected quiet console, got %q", stdout.String())
	}
}
