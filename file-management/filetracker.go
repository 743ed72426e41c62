package filemanagement

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yeti47/snapwatch/logging"
)

// FileTracker manages the capture files written between detection and upload
type FileTracker interface {
	// DeleteFile removes a file from disk
	DeleteFile(filePath string)

	// Track remembers a file so Cleanup can remove it later
	Track(filePath string)

	// EnsureDirectory creates the directory that will hold filePath
	EnsureDirectory(filePath string) error

	// Cleanup removes every tracked file that is still on disk
	Cleanup()
}

// LocalFileTracker implements FileTracker for local filesystem
type LocalFileTracker struct {
	tracked map[string]struct{}
	logger  logging.Logger
	mu      sync.Mutex
}

// NewLocalFileTracker creates a new local file tracker
func NewLocalFileTracker(logger logging.Logger) *LocalFileTracker {
	return &LocalFileTracker{
		tracked: make(map[string]struct{}),
		logger:  logging.OrNop(logger),
	}
}

// Track remembers a file so Cleanup can remove it later
func (t *LocalFileTracker) Track(filePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked[filePath] = struct{}{}
}

// Tracked returns the number of files currently tracked
func (t *LocalFileTracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracked)
}

// DeleteFile removes a file from disk. A missing file is not an error.
func (t *LocalFileTracker) DeleteFile(filePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleteLocked(filePath)
}

func (t *LocalFileTracker) deleteLocked(filePath string) {
	delete(t.tracked, filePath)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("Failed to remove file", "path", filePath, "error", err)
		return
	}
	t.logger.Debug("Deleted file", "path", filePath)
}

// EnsureDirectory creates the parent directory of filePath if it doesn't exist
func (t *LocalFileTracker) EnsureDirectory(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	t.logger.Debug("Capture directory ready", "dir", dir)
	return nil
}

// Cleanup removes all tracked files
func (t *LocalFileTracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for filePath := range t.tracked {
		t.logger.Info("Cleaning up capture file", "path", filePath)
		t.deleteLocked(filePath)
	}
}
