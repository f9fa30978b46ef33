package services

import (
	"context"
	"io"
	"time"

	"github.com/digitalforest/backend/internal/models"
)

// mockMediaRepository is a mock implementation of the repository interfaces
type mockMediaRepository struct {
	createErr    error
	created      *models.MediaItem
	createCalled bool

	items     []models.MediaItem
	count     int
	listErr   error
	lastQuery models.MediaFilter

	item      *models.MediaItem
	getErr    error
	updateErr error
	updatedID string
	updatedTo models.MediaStatus

	byTree      []models.MediaItem
	byTreeErr   error
	byTreeCalls int
}

func (m *mockMediaRepository) Create(ctx context.Context, item *models.MediaItem) error {
	m.createCalled = true
	if m.createErr != nil {
		return m.createErr
	}
	item.ID = "media-1"
	item.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item.UpdatedAt = item.CreatedAt
	m.created = item
	return nil
}

func (m *mockMediaRepository) List(ctx context.Context, filter models.MediaFilter) ([]models.MediaItem, int, error) {
	m.lastQuery = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.items, m.count, nil
}

func (m *mockMediaRepository) GetByID(ctx context.Context, id string) (*models.MediaItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	item := *m.item
	if m.updatedTo != "" {
		item.Status = m.updatedTo
	}
	return &item, nil
}

func (m *mockMediaRepository) UpdateStatus(ctx context.Context, id string, status models.MediaStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedID = id
	m.updatedTo = status
	return nil
}

func (m *mockMediaRepository) ListByTree(ctx context.Context, treeID string, status models.MediaStatus) ([]models.MediaItem, error) {
	m.byTreeCalls++
	if m.byTreeErr != nil {
		return nil, m.byTreeErr
	}
	return m.byTree, nil
}

// mockObjectStore is a mock implementation of ObjectStore
type mockObjectStore struct {
	presignURL string
	presignErr error
	presigned  struct {
		key         string
		contentType string
		expires     time.Duration
	}

	putErr  error
	putKey  string
	putBody []byte
	putSize int64

	existsErr error
	deleteErr error
	deleted   []string
}

func (m *mockObjectStore) PresignPut(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}
	m.presigned.key = objectKey
	m.presigned.contentType = contentType
	m.presigned.expires = expires
	return m.presignURL, nil
}

func (m *mockObjectStore) Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.putKey = objectKey
	m.putBody = data
	m.putSize = size
	return nil
}

func (m *mockObjectStore) Exists(ctx context.Context, objectKey string) error {
	return m.existsErr
}

func (m *mockObjectStore) Delete(ctx context.Context, objectKey string) error {
	m.deleted = append(m.deleted, objectKey)
	return m.deleteErr
}

func (m *mockObjectStore) PublicURL(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

func (m *mockObjectStore) Bucket() string {
	return "tree-media"
}

// mockGalleryCache is an in-memory implementation of GalleryCache
type mockGalleryCache struct {
	entries     map[string][]models.MediaItem
	getErr      error
	setErr      error
	invalidated []string
}

func newMockGalleryCache() *mockGalleryCache {
	return &mockGalleryCache{entries: map[string][]models.MediaItem{}}
}

func (m *mockGalleryCache) Get(ctx context.Context, treeID string) ([]models.MediaItem, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	items, ok := m.entries[treeID]
	return items, ok, nil
}

func (m *mockGalleryCache) Set(ctx context.Context, treeID string, items []models.MediaItem) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[treeID] = items
	return nil
}

func (m *mockGalleryCache) Invalidate(ctx context.Context, treeID string) error {
	m.invalidated = append(m.invalidated, treeID)
	delete(m.entries, treeID)
	return nil
}
