package preview

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Handle is a transient local copy of a selected file's bytes, used by the
// presentation layer to play back the media before and during submission.
// Its lifetime is not garbage-managed: Release must be called on every exit
// path. Release is safe to call more than once.
type Handle struct {
	path     string
	released bool
	mu       sync.Mutex
}

// Path returns the location of the preview copy on disk.
func (h *Handle) Path() string {
	return h.path
}

// Release removes the preview copy. Calling Release on an already released
// handle is a no-op.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.released = true

	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove preview file %s: %v", h.path, err)
	}
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Manager creates and tracks preview copies in a dedicated temp directory.
type Manager struct {
	tempDir string
	mu      sync.Mutex
}

// NewManager creates a new preview manager rooted at tempDir.
func NewManager(tempDir string) *Manager {
	return &Manager{tempDir: tempDir}
}

// EnsureTempDirectory creates the temporary directory if it doesn't exist
func (m *Manager) EnsureTempDirectory() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return os.MkdirAll(m.tempDir, 0755)
}

// Create copies the file at sourcePath into the temp directory and returns
// a handle to the copy.
func (m *Manager) Create(sourcePath string) (*Handle, error) {
	if err := m.EnsureTempDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(sourcePath)
	previewPath := filepath.Join(m.tempDir, name)

	dst, err := os.Create(previewPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(previewPath)
		return nil, fmt.Errorf("failed to copy preview data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(previewPath)
		return nil, fmt.Errorf("failed to close preview file: %w", err)
	}

	return &Handle{path: previewPath}, nil
}

// CleanupTempDirectory removes all files left in the temp directory, for
// example after a crash of a previous run.
func (m *Manager) CleanupTempDirectory() {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := os.ReadDir(m.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read preview directory %s: %v", m.tempDir, err)
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			path := filepath.Join(m.tempDir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to remove preview file %s: %v", path, err)
			}
		}
	}
}
