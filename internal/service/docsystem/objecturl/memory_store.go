package objecturl

import (
	"context"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
)

// handlePrefix precedes the uuid in every handle this store issues.
const handlePrefix = Scheme + "notes-together/"

type blob struct {
	data     []byte
	mimeType string
}

// MemoryStore is an in-process BlobSource. It issues object URLs for
// content that has not been persisted yet, such as freshly pasted images.
//
// Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]blob)}
}

// Put stores data and returns a new object URL for it.
func (m *MemoryStore) Put(data []byte, mimeType string) string {
	handle := handlePrefix + uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[handle] = blob{data: data, mimeType: mimeType}
	return handle
}

// Fetch implements BlobSource.
func (m *MemoryStore) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if err := validateHandle(url); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[url]
	if !ok {
		return nil, "", &domain.NotFoundError{Message: fmt.Sprintf("object url %s not found", url)}
	}
	return b.data, b.mimeType, nil
}

// Revoke forgets the content behind url. Revoking an unknown url is a no-op.
func (m *MemoryStore) Revoke(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, url)
}

// Len returns the number of live handles.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func validateHandle(url string) error {
	if !strings.HasPrefix(url, handlePrefix) {
		return fmt.Errorf("object url %q was not issued by this store", url)
	}
	return validation.Validate(strings.TrimPrefix(url, handlePrefix), validation.Required, is.UUID)
}
