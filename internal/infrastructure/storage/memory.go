package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	appbanking "github.com/clearbook/backend/internal/application/banking"
)

var _ appbanking.StatementArchive = (*MemoryStorage)(nil)

// MemoryStorage keeps objects in a map. Used in tests and local runs
// without an object store.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject), baseURL: "memory://objects"}
}

// Upload stores a copy of data
func (m *MemoryStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.objects[key] = memoryObject{data: buf, contentType: contentType}
	m.mu.Unlock()
	return nil
}

// Get returns the stored bytes and content type
func (m *MemoryStorage) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// DeleteObject removes an object; missing keys are not an error
func (m *MemoryStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// ObjectExists checks if an object exists
func (m *MemoryStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	_, _, ok := m.Get(key)
	return ok, nil
}

// GenerateDownloadURL returns a pseudo link for stored objects
func (m *MemoryStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if _, _, ok := m.Get(key); !ok {
		return "", time.Time{}, fmt.Errorf("object %s not found", key)
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiration
	}
	return m.baseURL + "/" + key, time.Now().Add(expiresIn), nil
}

// Len returns the number of stored objects
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
