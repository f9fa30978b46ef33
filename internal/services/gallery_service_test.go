package services

import (
	"context"
	"errors"
	"testing"

	"github.com/digitalforest/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGalleryService_ListApproved(t *testing.T) {
	approved := []models.MediaItem{
		{ID: "m2", TreeID: "T1", ObjectKey: "tree-media/T1/b.jpg", Status: models.MediaStatusApproved},
		{ID: "m1", TreeID: "T1", ObjectKey: "tree-media/T1/a.jpg", Status: models.MediaStatusApproved},
	}

	t.Run("miss then hit", func(t *testing.T) {
		repo := &mockMediaRepository{byTree: approved}
		cache := newMockGalleryCache()
		svc := NewGalleryService(repo, &mockObjectStore{}, cache, nil, nil)

		items, err := svc.ListApproved(context.Background(), "T1")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "https://cdn.example.com/tree-media/T1/b.jpg", items[0].PublicURL)
		assert.Contains(t, cache.entries, "T1")

		again, err := svc.ListApproved(context.Background(), "T1")
		require.NoError(t, err)
		assert.Equal(t, items, again)
		assert.Equal(t, 1, repo.byTreeCalls)
	})

	t.Run("without cache", func(t *testing.T) {
		repo := &mockMediaRepository{byTree: approved}
		svc := NewGalleryService(repo, &mockObjectStore{}, nil, nil, nil)

		_, err := svc.ListApproved(context.Background(), "T1")
		require.NoError(t, err)
		_, err = svc.ListApproved(context.Background(), "T1")
		require.NoError(t, err)

		assert.Equal(t, 2, repo.byTreeCalls)
	})

	t.Run("cache failures degrade to repository", func(t *testing.T) {
		repo := &mockMediaRepository{byTree: approved}
		cache := newMockGalleryCache()
		cache.getErr = errors.New("redis down")
		cache.setErr = errors.New("redis down")
		svc := NewGalleryService(repo, &mockObjectStore{}, cache, nil, nil)

		items, err := svc.ListApproved(context.Background(), "T1")

		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("blank tree id", func(t *testing.T) {
		repo := &mockMediaRepository{}
		svc := NewGalleryService(repo, &mockObjectStore{}, nil, nil, nil)

		_, err := svc.ListApproved(context.Background(), " ")

		requireValidationError(t, err, "treeId", "treeId is required")
		assert.Zero(t, repo.byTreeCalls)
	})

	t.Run("repository error", func(t *testing.T) {
		svc := NewGalleryService(&mockMediaRepository{byTreeErr: errors.New("db down")}, &mockObjectStore{}, nil, nil, nil)

		_, err := svc.ListApproved(context.Background(), "T1")

		assert.Error(t, err)
	})
}
