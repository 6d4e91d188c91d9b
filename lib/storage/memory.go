package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// MemoryStore keeps blobs in process memory. Signed URLs are opaque and not servable.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memoryObject

	// FailUploads makes every Upload return this error when set
	FailUploads error
}

type memoryObject struct {
	body        []byte
	contentType string
}

// NewMemory returns an empty in-memory store issuing URLs under baseURL
func NewMemory(baseURL string) *MemoryStore {
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Driver() Driver { return DriverMemory }

func (m *MemoryStore) Upload(ctx context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailUploads != nil {
		return m.FailUploads
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read blob %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{body: data, contentType: contentType}
	return nil
}

func (m *MemoryStore) SignedURL(_ context.Context, key string, perm Permission, expiry time.Duration) (string, error) {
	q := url.Values{}
	q.Set("perm", string(perm))
	q.Set("expires", time.Now().Add(expiry).UTC().Format(time.RFC3339))
	return fmt.Sprintf("%s/%s?%s", m.baseURL, url.PathEscape(key), q.Encode()), nil
}

// Get returns a stored blob
func (m *MemoryStore) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return obj.body, obj.contentType, nil
}

// Len reports how many blobs are stored
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
