package common

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDailyRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewDailyRotatingWriter(dir, "watch-client")
	defer writer.Close()

	if _, err := writer.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := writer.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	day := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("watch-client-%s.log", day))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("Unexpected log contents: %q", string(data))
	}
}

func TestDailyRotatingWriterCloseWithoutWrite(t *testing.T) {
	writer := NewDailyRotatingWriter(t.TempDir(), "watch-client")
	if err := writer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
