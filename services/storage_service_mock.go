package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sync"

	"github.com/quickprint/quickprint-api/utils"
)

// MockStorageService is an in-memory implementation of StorageInterface
// for testing
type MockStorageService struct {
	mu    sync.RWMutex
	files map[string][]byte // storage key -> file content

	// FailDelete makes Delete return an error, for exercising the
	// file-first deletion ordering.
	FailDelete bool
	// FailUpload makes Upload return an error.
	FailUpload bool

	uploadCount int
}

// NewMockStorageService creates a new mock storage service
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{
		files: make(map[string][]byte),
	}
}

// Upload simulates storing a file and returns a deterministic key
func (m *MockStorageService) Upload(fileHeader *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpload {
		return "", fmt.Errorf("mock storage upload failure")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	m.uploadCount++
	filename := utils.SanitizeFileName(filepath.Base(fileHeader.Filename))
	key := fmt.Sprintf("orders/mock-%d-%s", m.uploadCount, filename)
	m.files[key] = content

	return key, nil
}

// SignedURL returns a mock retrieval URL for a stored key
func (m *MockStorageService) SignedURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.files[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock storage: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// Delete removes a stored file, or fails when FailDelete is set
func (m *MockStorageService) Delete(key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return fmt.Errorf("mock storage delete failure")
	}

	delete(m.files, key)
	return nil
}

// FileExists checks if a file exists in mock storage
func (m *MockStorageService) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.files[key]
	return exists
}

// StoredCount returns the number of files currently held in mock storage
func (m *MockStorageService) StoredCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// Clear removes all files from mock storage
func (m *MockStorageService) Clear() {
	m.mu.Lock()
	m.files = make(map[string][]byte)
	m.mu.Unlock()
}
