package videos

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

// StoredVideo describes an uploaded video persisted to the staging area.
type StoredVideo struct {
	// OriginalName is the filename the client submitted. It is the
	// correlation key echoed back in every push event for this video.
	OriginalName string
	// StoredPath is where the bytes live on disk. The stored name is
	// generated, never the client-supplied one.
	StoredPath string
	// Size is the stored size in bytes.
	Size int64
}

// UploadStore persists uploaded videos until analysis has consumed them.
type UploadStore interface {
	// Save writes the upload to the staging area
	Save(originalName string, r io.Reader) (*StoredVideo, error)
	// Remove deletes a stored video after analysis is done with it
	Remove(storedPath string) error
}

// diskUploadStore implements UploadStore on the local filesystem
type diskUploadStore struct {
	dir    string
	logger logging.Logger
}

// NewDiskUploadStore creates an UploadStore rooted at dir, creating the
// directory if needed.
func NewDiskUploadStore(dir string, logger logging.Logger) (UploadStore, error) {
	if logger == nil {
		logger = logging.NopLogger
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &diskUploadStore{
		dir:    dir,
		logger: logger,
	}, nil
}

// Save writes the upload to disk under a generated name. The original name
// is kept only as metadata so hostile filenames never touch the filesystem.
func (s *diskUploadStore) Save(originalName string, r io.Reader) (*StoredVideo, error) {
	storedName := uuid.NewString() + filepath.Ext(originalName)
	storedPath := filepath.Join(s.dir, storedName)

	file, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create stored file: %w", err)
	}

	size, err := io.Copy(file, r)
	if err != nil {
		file.Close()
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to write stored file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to close stored file: %w", err)
	}

	s.logger.Debug("Stored uploaded video", "original", originalName, "path", storedPath, "size", size)

	return &StoredVideo{
		OriginalName: originalName,
		StoredPath:   storedPath,
		Size:         size,
	}, nil
}

// Remove deletes a stored video. Removing an already removed file is a no-op.
func (s *diskUploadStore) Remove(storedPath string) error {
	if err := os.Remove(storedPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}
	return nil
}
