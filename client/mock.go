package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/yeti47/snapwatch/logging"
)

// MockImageStoreClient is a mock implementation for running without a server.
// Uploaded files are copied into an output directory.
type MockImageStoreClient struct {
	authenticated  bool
	authCount      int
	uploads        []UploadRecord
	outputDir      string
	failUploadWith error
	logger         logging.Logger
}

// UploadRecord tracks uploaded images for testing
type UploadRecord struct {
	ID         string
	Timestamp  time.Time
	Size       int64
	SourcePath string
	FilePath   string // Path where the image was saved
}

// NewMockImageStoreClient creates a new mock client that saves uploads into outputDir
func NewMockImageStoreClient(outputDir string, logger logging.Logger) (*MockImageStoreClient, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	return &MockImageStoreClient{
		outputDir: outputDir,
		logger:    logging.OrNop(logger),
	}, nil
}

func (m *MockImageStoreClient) Authenticate(ctx context.Context) error {
	m.authCount++
	m.authenticated = true
	m.logger.Info("[MOCK] Authenticated")
	return nil
}

// Upload copies the file into the output directory as <uuid>_<basename>
func (m *MockImageStoreClient) Upload(ctx context.Context, filePath string) error {
	if !m.authenticated {
		if err := m.Authenticate(ctx); err != nil {
			return err
		}
	}
	if m.failUploadWith != nil {
		return NewUploadError(filePath, 0, m.failUploadWith)
	}

	src, err := os.Open(filePath)
	if err != nil {
		return NewUploadError(filePath, 0, fmt.Errorf("failed to open file: %w", err))
	}
	defer src.Close()

	id := uuid.New().String()
	target := filepath.Join(m.outputDir, id+"_"+filepath.Base(filePath))

	dst, err := os.Create(target)
	if err != nil {
		return NewUploadError(filePath, 0, fmt.Errorf("failed to save image: %w", err))
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return NewUploadError(filePath, 0, fmt.Errorf("failed to save image: %w", err))
	}

	m.uploads = append(m.uploads, UploadRecord{
		ID:         id,
		Timestamp:  time.Now(),
		Size:       size,
		SourcePath: filePath,
		FilePath:   target,
	})

	m.logger.Info("[MOCK] Upload completed", "saved", target, "bytes", size, "total", len(m.uploads))
	return nil
}

// GetUploads returns all recorded uploads
func (m *MockImageStoreClient) GetUploads() []UploadRecord {
	return m.uploads
}

// AuthCount returns how many times Authenticate ran
func (m *MockImageStoreClient) AuthCount() int {
	return m.authCount
}

// FailUploads makes every following upload fail with err; nil restores normal behaviour
func (m *MockImageStoreClient) FailUploads(err error) {
	m.failUploadWith = err
}

// GetOutputDirectory returns the directory where images are saved
func (m *MockImageStoreClient) GetOutputDirectory() string {
	return m.outputDir
}
