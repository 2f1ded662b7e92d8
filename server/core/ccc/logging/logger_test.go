package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{LogLevel("bogus"), slog.LevelInfo},
		{LogLevel(""), slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.slogLevel(); got != tt.expected {
			t.Errorf("slogLevel(%q) = %v, expected %v", tt.level, got, tt.expected)
		}
	}
}

func TestCreateLoggerWritesDatedFile(t *testing.T) {
	dir := t.TempDir()

	logger := CreateLogger(LogLevelInfo, dir, "analysis-server")
	logger.Info("started", "port", 5000)

	day := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("analysis-server-%s.log", day))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected log output in dated file")
	}
}

func TestNopLogger(t *testing.T) {
	// Must be safe to call with any arguments.
	NopLogger.Info("msg")
	NopLogger.Warn("msg", "key", "value")
	NopLogger.Error("msg", "key")
	NopLogger.Debug("msg")
}
