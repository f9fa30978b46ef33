package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/models"
	"go.uber.org/zap"
)

// GalleryCache defines the interface for caching approved media per tree
type GalleryCache interface {
	Get(ctx context.Context, treeID string) ([]models.MediaItem, bool, error)
	Set(ctx context.Context, treeID string, items []models.MediaItem) error
	Invalidate(ctx context.Context, treeID string) error
}

// GalleryRepository defines the interface for reading media of one tree
type GalleryRepository interface {
	ListByTree(ctx context.Context, treeID string, status models.MediaStatus) ([]models.MediaItem, error)
}

// GalleryService serves the approved media of a tree to public readers
type GalleryService struct {
	repo    GalleryRepository
	urls    PublicURLResolver
	cache   GalleryCache
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewGalleryService creates a new gallery service.
// cache and recorder may be nil.
func NewGalleryService(repo GalleryRepository, urls PublicURLResolver, cache GalleryCache, recorder *metrics.Recorder, logger *zap.Logger) *GalleryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GalleryService{
		repo:    repo,
		urls:    urls,
		cache:   cache,
		metrics: recorder,
		logger:  logger,
	}
}

// ListApproved returns the approved media of a tree, newest first.
// Cache failures fall through to the repository.
func (s *GalleryService) ListApproved(ctx context.Context, treeID string) ([]models.MediaItem, error) {
	if err := models.ValidateTreeID(treeID); err != nil {
		return nil, err
	}
	treeID = strings.TrimSpace(treeID)

	if s.cache != nil {
		items, hit, err := s.cache.Get(ctx, treeID)
		if err != nil {
			s.logger.Warn("gallery cache read failed", zap.String("tree_id", treeID), zap.Error(err))
		}
		if hit {
			s.metrics.GalleryLookup(true)
			return items, nil
		}
		s.metrics.GalleryLookup(false)
	}

	items, err := s.repo.ListByTree(ctx, treeID, models.MediaStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree media: %w", err)
	}
	for i := range items {
		items[i].PublicURL = s.urls.PublicURL(items[i].ObjectKey)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, treeID, items); err != nil {
			s.logger.Warn("gallery cache write failed", zap.String("tree_id", treeID), zap.Error(err))
		}
	}

	return items, nil
}

// invalidateGallery drops the cached gallery of a tree, logging failures
func invalidateGallery(ctx context.Context, cache GalleryCache, logger *zap.Logger, treeID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, treeID); err != nil {
		logger.Warn("gallery cache invalidation failed", zap.String("tree_id", treeID), zap.Error(err))
	}
}
