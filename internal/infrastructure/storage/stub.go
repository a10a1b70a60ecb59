package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	procapp "github.com/fieldops/backend/internal/application/procurement"
)

// StubObjectStorage is an in-memory stand-in for the attachment store, used
// in development and tests. Generated URLs are fake but stable; deletes are
// remembered so the confirmation flow can be exercised.
type StubObjectStorage struct {
	// BaseURL is the base for generated upload/download URLs
	BaseURL string

	mu      sync.Mutex
	deleted map[string]bool
}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
		deleted: make(map[string]bool),
	}
}

// Ensure StubObjectStorage implements ObjectStorageService
var _ procapp.ObjectStorageService = (*StubObjectStorage)(nil)

// GenerateUploadURL generates a fake presigned upload URL
func (s *StubObjectStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/upload/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// GenerateDownloadURL generates a fake presigned download URL
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339), expiresAt, nil
}

// DeleteObject marks the key as gone
func (s *StubObjectStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	s.deleted[storageKey] = true
	s.mu.Unlock()
	return nil
}

// ObjectExists reports true for every key that has not been deleted, so the
// upload confirmation flow works without a real backend
func (s *StubObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.deleted[storageKey], nil
}
