package videos

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskUploadStoreSave(t *testing.T) {
	dir := t.TempDir()

	store, err := NewDiskUploadStore(dir, nil)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	stored, err := store.Save("crash1.mp4", strings.NewReader("video bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if stored.OriginalName != "crash1.mp4" {
		t.Errorf("Expected original name preserved, got %s", stored.OriginalName)
	}
	if stored.Size != int64(len("video bytes")) {
		t.Errorf("Expected size %d, got %d", len("video bytes"), stored.Size)
	}

	// The stored name must be generated, not the client-supplied one.
	if filepath.Base(stored.StoredPath) == "crash1.mp4" {
		t.Error("Expected a generated stored name")
	}
	if filepath.Ext(stored.StoredPath) != ".mp4" {
		t.Errorf("Expected stored name to keep the extension, got %s", stored.StoredPath)
	}

	data, err := os.ReadFile(stored.StoredPath)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != "video bytes" {
		t.Errorf("Stored content mismatch: %q", data)
	}
}

func TestDiskUploadStoreRemove(t *testing.T) {
	store, err := NewDiskUploadStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	stored, err := store.Save("crash1.mp4", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Remove(stored.StoredPath); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(stored.StoredPath); !os.IsNotExist(err) {
		t.Errorf("Expected stored file removed, stat err: %v", err)
	}

	// Removing twice must not error.
	if err := store.Remove(stored.StoredPath); err != nil {
		t.Errorf("Expected double remove to be a no-op, got %v", err)
	}
}

func TestDiskUploadStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	if _, err := NewDiskUploadStore(dir, nil); err != nil {
		t.Fatalf("Expected directory to be created: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected upload directory to exist: %v", err)
	}
}
