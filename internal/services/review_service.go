package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/models"
	"go.uber.org/zap"
)

// Moderation queue page sizes
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ReviewRepository defines the interface for moderation data access
type ReviewRepository interface {
	List(ctx context.Context, filter models.MediaFilter) ([]models.MediaItem, int, error)
	GetByID(ctx context.Context, id string) (*models.MediaItem, error)
	UpdateStatus(ctx context.Context, id string, status models.MediaStatus) error
}

// PublicURLResolver maps object keys to readable URLs
type PublicURLResolver interface {
	PublicURL(objectKey string) string
}

// ReviewService handles listing and moderating media
type ReviewService struct {
	repo    ReviewRepository
	urls    PublicURLResolver
	gallery GalleryCache
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewReviewService creates a new review service.
// gallery and recorder may be nil.
func NewReviewService(repo ReviewRepository, urls PublicURLResolver, gallery GalleryCache, recorder *metrics.Recorder, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		repo:    repo,
		urls:    urls,
		gallery: gallery,
		metrics: recorder,
		logger:  logger,
	}
}

// List returns one page of media in a single status, newest first.
//
// Missing or unknown statuses list pending media. The limit defaults to DefaultListLimit
// and is clamped to MaxListLimit; negative offsets start from the beginning.
func (s *ReviewService) List(ctx context.Context, req *models.ListMediaRequest) (*models.ListMediaResponse, error) {
	filter := s.buildFilter(req)

	items, count, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	for i := range items {
		items[i].PublicURL = s.urls.PublicURL(items[i].ObjectKey)
	}

	return &models.ListMediaResponse{
		Items:  items,
		Count:  count,
		Status: filter.Status,
	}, nil
}

func (s *ReviewService) buildFilter(req *models.ListMediaRequest) models.MediaFilter {
	status := models.MediaStatus(req.Status)
	if !status.IsValid() {
		if req.Status != "" {
			s.logger.Debug("unknown review status, listing pending media", zap.String("status", req.Status))
		}
		status = models.MediaStatusPending
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	var treeIDs []string
	for _, treeID := range req.TreeIDs {
		if trimmed := strings.TrimSpace(treeID); trimmed != "" {
			treeIDs = append(treeIDs, trimmed)
		}
	}

	return models.MediaFilter{
		Status:  status,
		TreeIDs: treeIDs,
		Limit:   limit,
		Offset:  offset,
	}
}

// UpdateStatus moves a media item to another status and returns the updated item.
//
// Returns models.ErrMediaNotFound if no item has the given id.
func (s *ReviewService) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.MediaItem, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, models.NewValidationError("id", "id is required")
	}
	if !req.Status.IsValid() {
		return nil, models.NewValidationError("status", "invalid status")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update media status: %w", err)
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated media: %w", err)
	}
	item.PublicURL = s.urls.PublicURL(item.ObjectKey)

	s.metrics.StatusUpdated(string(item.Status))
	invalidateGallery(ctx, s.gallery, s.logger, item.TreeID)

	return item, nil
}
