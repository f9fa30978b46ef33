package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/models"
	"github.com/digitalforest/backend/internal/storage"
	"go.uber.org/zap"
)

// ErrUploadNotVerified is returned when the object named by a record request cannot be found in storage
var ErrUploadNotVerified = errors.New("uploaded object could not be verified")

// Proxy upload defaults for parts that carry no name or content type
const (
	DefaultFileName = "upload"
	DefaultMimeType = "application/octet-stream"
)

// ObjectStore defines the interface for object storage operations
type ObjectStore interface {
	PresignPut(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error)
	Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error
	Exists(ctx context.Context, objectKey string) error
	Delete(ctx context.Context, objectKey string) error
	PublicURL(objectKey string) string
	Bucket() string
}

// MediaRepository defines the interface for creating media records
type MediaRepository interface {
	Create(ctx context.Context, item *models.MediaItem) error
}

// UploadService handles the server side of both upload paths
type UploadService struct {
	repo    MediaRepository
	store   ObjectStore
	gallery GalleryCache
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewUploadService creates a new upload service.
// gallery and recorder may be nil.
func NewUploadService(repo MediaRepository, store ObjectStore, gallery GalleryCache, recorder *metrics.Recorder, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		repo:    repo,
		store:   store,
		gallery: gallery,
		metrics: recorder,
		logger:  logger,
	}
}

// IssueUploadURL validates an intended upload and returns a pre-authorized URL for a fresh object key.
// No record is written.
func (s *UploadService) IssueUploadURL(ctx context.Context, req *models.IssueUploadURLRequest) (*models.IssueUploadURLResponse, error) {
	if err := models.ValidateUpload(req.TreeID, req.MimeType, req.FileSizeBytes); err != nil {
		return nil, err
	}

	objectKey := storage.BuildObjectKey(req.TreeID, req.FileName, req.MimeType)

	uploadURL, err := s.store.PresignPut(ctx, objectKey, req.MimeType, models.UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &models.IssueUploadURLResponse{
		UploadURL:   uploadURL,
		ObjectKey:   objectKey,
		ExpiresIn:   int(models.UploadURLExpiry / time.Second),
		Bucket:      s.store.Bucket(),
		MaxFileSize: models.MaxFileSize,
		Headers: map[string]string{
			"Content-Type": req.MimeType,
		},
	}, nil
}

// RecordUpload creates the media record for an object the client already wrote through a presigned URL.
//
// Returns ErrUploadNotVerified if the object cannot be confirmed in storage.
func (s *UploadService) RecordUpload(ctx context.Context, req *models.RecordUploadRequest, info models.RequestInfo) (*models.MediaItem, error) {
	if err := models.ValidateUpload(req.TreeID, req.MimeType, req.FileSizeBytes); err != nil {
		return nil, err
	}
	if err := models.ValidateObjectKey(req.ObjectKey); err != nil {
		return nil, err
	}

	if err := s.store.Exists(ctx, req.ObjectKey); err != nil {
		s.logger.Warn("uploaded object could not be verified",
			zap.String("object_key", req.ObjectKey),
			zap.Error(err),
		)
		s.metrics.UploadRecorded(metrics.PathPresigned, req.FileSizeBytes, err)
		return nil, fmt.Errorf("%w: %v", ErrUploadNotVerified, err)
	}

	item := &models.MediaItem{
		TreeID:        strings.TrimSpace(req.TreeID),
		ObjectKey:     req.ObjectKey,
		MimeType:      req.MimeType,
		FileSizeBytes: req.FileSizeBytes,
		Status:        statusOrDefault(req.Status),
		UploadedBy:    req.UploadedBy,
		Metadata:      models.ComposeMetadata(req.Metadata, req.OriginalFileName, info),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		s.metrics.UploadRecorded(metrics.PathPresigned, req.FileSizeBytes, err)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	s.afterCreate(ctx, metrics.PathPresigned, item)
	return item, nil
}

// ProxyUpload stores the bytes of body and creates the media record in one call.
// It is the fallback for clients whose direct upload failed.
//
// req.Size must be the number of bytes body yields. If the record cannot be created,
// the stored object is removed again.
func (s *UploadService) ProxyUpload(ctx context.Context, req *models.ProxyUploadRequest, body io.Reader, info models.RequestInfo) (*models.MediaItem, error) {
	fileName := req.FileName
	if fileName == "" {
		fileName = DefaultFileName
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	if err := models.ValidateUpload(req.TreeID, mimeType, req.Size); err != nil {
		return nil, err
	}
	if req.DeclaredSize != nil && *req.DeclaredSize != req.Size {
		return nil, models.NewValidationError("fileSizeBytes", "fileSizeBytes does not match the uploaded file")
	}

	objectKey := storage.BuildObjectKey(req.TreeID, fileName, mimeType)

	if err := s.store.Put(ctx, objectKey, mimeType, body, req.Size); err != nil {
		s.metrics.UploadRecorded(metrics.PathProxy, req.Size, err)
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	item := &models.MediaItem{
		TreeID:        strings.TrimSpace(req.TreeID),
		ObjectKey:     objectKey,
		MimeType:      mimeType,
		FileSizeBytes: req.Size,
		Status:        statusOrDefault(req.Status),
		Metadata:      models.ComposeMetadata(nil, fileName, info),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		s.metrics.UploadRecorded(metrics.PathProxy, req.Size, err)
		if delErr := s.store.Delete(ctx, objectKey); delErr != nil {
			s.logger.Warn("failed to remove orphaned object",
				zap.String("object_key", objectKey),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	s.afterCreate(ctx, metrics.PathProxy, item)
	return item, nil
}

func (s *UploadService) afterCreate(ctx context.Context, path string, item *models.MediaItem) {
	item.PublicURL = s.store.PublicURL(item.ObjectKey)
	s.metrics.UploadRecorded(path, item.FileSizeBytes, nil)
	if item.Status == models.MediaStatusApproved {
		invalidateGallery(ctx, s.gallery, s.logger, item.TreeID)
	}
}

func statusOrDefault(status models.MediaStatus) models.MediaStatus {
	if status == "" {
		return models.MediaStatusPending
	}
	return status
}
