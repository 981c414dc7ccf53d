package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/medhub/medhub-api/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" ERROR ", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetConsoleLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		env         config.Environment
		logLevelStr string
		verbose     bool
		expected    slog.Level
	}{
		{"dev defaults to info", config.EnvDevelopment, "", false, slog.LevelInfo},
		{"test quiet defaults to error", config.EnvTest, "", false, slog.LevelError},
		{"test verbose defaults to info", config.EnvTest, "", true, slog.LevelInfo},
		{"prod defaults to warn", config.EnvProduction, "", false, slog.LevelWarn},
		{"staging defaults to warn", config.EnvStaging, "", false, slog.LevelWarn},
		{"prod with debug override", config.EnvProduction, "debug", false, slog.LevelDebug},
		{"dev with error override", config.EnvDevelopment, "error", false, slog.LevelError},
		{"test ignores override", config.EnvTest, "debug", false, slog.LevelError},
		{"test verbose ignores override", config.EnvTest, "debug", true, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetConsoleLogLevel(tt.env, tt.logLevelStr, tt.verbose)
			if got != tt.expected {
				t.Errorf("GetConsoleLogLevel(%v, %q, %v) = %v, want %v", tt.env, tt.logLevelStr, tt.verbose, got, tt.expected)
			}
		})
	}
}

func TestGetFileLogLevel(t *testing.T) {
	if got := GetFileLogLevel(); got != slog.LevelDebug {
		t.Errorf("GetFileLogLevel() = %v, want %v", got, slog.LevelDebug)
	}
}

func TestInitLoggerWritesToRotatingFile(t *testing.T) {
	tempDir := t.TempDir()
	previous := DefaultLoggingService
	t.Cleanup(func() {
		_ = Close()
		DefaultLoggingService = previous
	})

	InitLogger(Options{Dir: tempDir, Env: config.EnvTest, RetentionWeeks: 1})
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		t.Fatal("InitLogger did not set up the rotating file")
	}

	Debug("debug reaches the file")
	Info("info reaches the file")

	path := filepath.Join(tempDir, weekFileName(getWeekKey(time.Now())))
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	for _, want := range []string{"debug reaches the file", "info reaches the file"} {
		if !contains(string(content), want) {
			t.Errorf("log file missing %q: %s", want, content)
		}
	}
}

func TestHelpersWithoutInit(t *testing.T) {
	previous := DefaultLoggingService
	DefaultLoggingService = nil
	t.Cleanup(func() { DefaultLoggingService = previous })

	// Falls back to a console logger instead of panicking
	Info("no logger configured")
	Warn("no logger configured")
	if err := Close(); err != nil {
		t.Errorf("Close() without init returned %v", err)
	}
}

func TestInitLoggerWithoutDirectory(t *testing.T) {
	previous := DefaultLoggingService
	t.Cleanup(func() { DefaultLoggingService = previous })

	InitLogger(Options{Env: config.EnvTest})
	if DefaultLoggingService.rotating != nil {
		t.Error("expected console-only logging when no directory is set")
	}
}
