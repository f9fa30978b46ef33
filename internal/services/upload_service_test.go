package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/digitalforest/backend/internal/models"
	"github.com/digitalforest/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func requireValidationError(t *testing.T, err error, field, message string) {
	t.Helper()
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, field, vErr.Field)
	if message != "" {
		assert.Equal(t, message, vErr.Message)
	}
}

func TestUploadService_IssueUploadURL(t *testing.T) {
	tests := []struct {
		name          string
		req           models.IssueUploadURLRequest
		store         *mockObjectStore
		expectedField string
		expectedMsg   string
		expectedError bool
		keyPrefix     string
		keySuffix     string
	}{
		{
			name:      "success with file extension",
			req:       models.IssueUploadURLRequest{TreeID: "T1", FileName: "a.JPG", MimeType: "image/jpeg", FileSizeBytes: 1024},
			store:     &mockObjectStore{presignURL: "https://store/put"},
			keyPrefix: "tree-media/T1/",
			keySuffix: ".jpg",
		},
		{
			name:      "extension from mime type",
			req:       models.IssueUploadURLRequest{TreeID: "oak tree #7", FileName: "photo", MimeType: "image/webp", FileSizeBytes: 10},
			store:     &mockObjectStore{presignURL: "https://store/put"},
			keyPrefix: "tree-media/oak-tree-7/",
			keySuffix: ".webp",
		},
		{
			name:          "blank tree id",
			req:           models.IssueUploadURLRequest{TreeID: "   ", MimeType: "image/png", FileSizeBytes: 10},
			store:         &mockObjectStore{},
			expectedField: "treeId",
			expectedMsg:   "treeId is required",
		},
		{
			name:          "not an image",
			req:           models.IssueUploadURLRequest{TreeID: "T1", MimeType: "application/pdf", FileSizeBytes: 10},
			store:         &mockObjectStore{},
			expectedField: "mimeType",
			expectedMsg:   "Only image uploads are supported",
		},
		{
			name:          "file too large",
			req:           models.IssueUploadURLRequest{TreeID: "T1", MimeType: "image/png", FileSizeBytes: models.MaxFileSize + 1},
			store:         &mockObjectStore{},
			expectedField: "fileSizeBytes",
			expectedMsg:   models.FileSizeMessage,
		},
		{
			name:          "zero size",
			req:           models.IssueUploadURLRequest{TreeID: "T1", MimeType: "image/png", FileSizeBytes: 0},
			store:         &mockObjectStore{},
			expectedField: "fileSizeBytes",
		},
		{
			name:          "presign failure",
			req:           models.IssueUploadURLRequest{TreeID: "T1", MimeType: "image/png", FileSizeBytes: 10},
			store:         &mockObjectStore{presignErr: errors.New("credentials expired")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockMediaRepository{}
			svc := NewUploadService(repo, tt.store, nil, nil, nil)

			resp, err := svc.IssueUploadURL(context.Background(), &tt.req)

			assert.False(t, repo.createCalled)
			if tt.expectedField != "" {
				requireValidationError(t, err, tt.expectedField, tt.expectedMsg)
				assert.Nil(t, resp)
				return
			}
			if tt.expectedError {
				require.Error(t, err)
				var vErr *models.ValidationError
				assert.False(t, errors.As(err, &vErr))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "https://store/put", resp.UploadURL)
			assert.True(t, strings.HasPrefix(resp.ObjectKey, tt.keyPrefix), resp.ObjectKey)
			assert.True(t, strings.HasSuffix(resp.ObjectKey, tt.keySuffix), resp.ObjectKey)
			assert.Equal(t, 300, resp.ExpiresIn)
			assert.Equal(t, "tree-media", resp.Bucket)
			assert.Equal(t, models.MaxFileSize, resp.MaxFileSize)
			assert.Equal(t, map[string]string{"Content-Type": tt.req.MimeType}, resp.Headers)
			assert.Equal(t, resp.ObjectKey, tt.store.presigned.key)
			assert.Equal(t, tt.req.MimeType, tt.store.presigned.contentType)
			assert.Equal(t, 5*time.Minute, tt.store.presigned.expires)
		})
	}
}

func TestUploadService_IssueUploadURL_FreshKeys(t *testing.T) {
	svc := NewUploadService(&mockMediaRepository{}, &mockObjectStore{presignURL: "u"}, nil, nil, nil)
	req := &models.IssueUploadURLRequest{TreeID: "T1", FileName: "a.jpg", MimeType: "image/jpeg", FileSizeBytes: 1}

	first, err := svc.IssueUploadURL(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.IssueUploadURL(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ObjectKey, second.ObjectKey)
}

func TestUploadService_RecordUpload(t *testing.T) {
	uploader := "user-9"
	info := models.RequestInfo{IP: "203.0.113.7", UserAgent: "Mozilla/5.0"}

	t.Run("success with defaults", func(t *testing.T) {
		repo := &mockMediaRepository{}
		cache := newMockGalleryCache()
		svc := NewUploadService(repo, &mockObjectStore{}, cache, nil, nil)

		item, err := svc.RecordUpload(context.Background(), &models.RecordUploadRequest{
			TreeID:           " T1 ",
			ObjectKey:        "tree-media/T1/abc.jpg",
			MimeType:         "image/jpeg",
			FileSizeBytes:    2048,
			OriginalFileName: "IMG_1.jpg",
			Metadata:         models.Metadata{"camera": "X100", models.MetadataUploaderIP: "1.1.1.1", "empty": nil},
			UploadedBy:       &uploader,
		}, info)

		require.NoError(t, err)
		assert.Equal(t, "media-1", item.ID)
		assert.Equal(t, "T1", item.TreeID)
		assert.Equal(t, models.MediaStatusPending, item.Status)
		assert.Equal(t, "https://cdn.example.com/tree-media/T1/abc.jpg", item.PublicURL)
		assert.Equal(t, &uploader, item.UploadedBy)
		assert.Equal(t, models.Metadata{
			"camera":                        "X100",
			models.MetadataOriginalFileName: "IMG_1.jpg",
			models.MetadataUploaderIP:       "203.0.113.7",
			models.MetadataUserAgent:        "Mozilla/5.0",
		}, item.Metadata)
		assert.Empty(t, cache.invalidated)
	})

	t.Run("approved upload invalidates gallery", func(t *testing.T) {
		cache := newMockGalleryCache()
		svc := NewUploadService(&mockMediaRepository{}, &mockObjectStore{}, cache, nil, nil)

		item, err := svc.RecordUpload(context.Background(), &models.RecordUploadRequest{
			TreeID:        "T1",
			ObjectKey:     "tree-media/T1/abc.jpg",
			MimeType:      "image/jpeg",
			FileSizeBytes: 1,
			Status:        models.MediaStatusApproved,
		}, models.RequestInfo{})

		require.NoError(t, err)
		assert.Equal(t, models.MediaStatusApproved, item.Status)
		assert.Equal(t, []string{"T1"}, cache.invalidated)
		assert.NotContains(t, item.Metadata, models.MetadataUploaderIP)
	})

	t.Run("object missing", func(t *testing.T) {
		repo := &mockMediaRepository{}
		svc := NewUploadService(repo, &mockObjectStore{existsErr: storage.ErrObjectNotFound}, nil, nil, nil)

		item, err := svc.RecordUpload(context.Background(), &models.RecordUploadRequest{
			TreeID: "T1", ObjectKey: "tree-media/T1/missing.jpg", MimeType: "image/jpeg", FileSizeBytes: 1,
		}, info)

		assert.Nil(t, item)
		assert.ErrorIs(t, err, ErrUploadNotVerified)
		assert.False(t, repo.createCalled)
	})

	t.Run("probe failure is not verified", func(t *testing.T) {
		repo := &mockMediaRepository{}
		svc := NewUploadService(repo, &mockObjectStore{existsErr: errors.New("timeout")}, nil, nil, nil)

		_, err := svc.RecordUpload(context.Background(), &models.RecordUploadRequest{
			TreeID: "T1", ObjectKey: "k", MimeType: "image/jpeg", FileSizeBytes: 1,
		}, info)

		assert.ErrorIs(t, err, ErrUploadNotVerified)
		assert.False(t, repo.createCalled)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			req   models.RecordUploadRequest
			field string
		}{
			{name: "tree id", req: models.RecordUploadRequest{ObjectKey: "k", MimeType: "image/png", FileSizeBytes: 1}, field: "treeId"},
			{name: "object key", req: models.RecordUploadRequest{TreeID: "T1", MimeType: "image/png", FileSizeBytes: 1}, field: "s3Key"},
			{name: "mime type", req: models.RecordUploadRequest{TreeID: "T1", ObjectKey: "k", MimeType: "text/plain", FileSizeBytes: 1}, field: "mimeType"},
			{name: "size", req: models.RecordUploadRequest{TreeID: "T1", ObjectKey: "k", MimeType: "image/png", FileSizeBytes: -1}, field: "fileSizeBytes"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := &mockMediaRepository{}
				svc := NewUploadService(repo, &mockObjectStore{}, nil, nil, nil)

				_, err := svc.RecordUpload(context.Background(), &tt.req, info)

				requireValidationError(t, err, tt.field, "")
				assert.False(t, repo.createCalled)
			})
		}
	})

	t.Run("persistence failure", func(t *testing.T) {
		svc := NewUploadService(&mockMediaRepository{createErr: errors.New("duplicate key")}, &mockObjectStore{}, nil, nil, nil)

		_, err := svc.RecordUpload(context.Background(), &models.RecordUploadRequest{
			TreeID: "T1", ObjectKey: "k", MimeType: "image/jpeg", FileSizeBytes: 1,
		}, info)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUploadNotVerified)
	})
}

func TestUploadService_ProxyUpload(t *testing.T) {
	info := models.RequestInfo{IP: "198.51.100.2", UserAgent: "curl/8"}
	body := "fake image bytes"

	t.Run("success", func(t *testing.T) {
		repo := &mockMediaRepository{}
		store := &mockObjectStore{}
		svc := NewUploadService(repo, store, nil, nil, nil)

		item, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID:       "Oak 12",
			FileName:     "leaf.PNG",
			MimeType:     "image/png",
			DeclaredSize: int64Ptr(int64(len(body))),
			Size:         int64(len(body)),
		}, strings.NewReader(body), info)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(store.putKey, "tree-media/Oak-12/"), store.putKey)
		assert.True(t, strings.HasSuffix(store.putKey, ".png"), store.putKey)
		assert.Equal(t, body, string(store.putBody))
		assert.Equal(t, int64(len(body)), store.putSize)
		assert.Equal(t, store.putKey, item.ObjectKey)
		assert.Equal(t, "Oak 12", item.TreeID)
		assert.Equal(t, models.MediaStatusPending, item.Status)
		assert.Equal(t, "leaf.PNG", item.Metadata.String(models.MetadataOriginalFileName))
		assert.Equal(t, "198.51.100.2", item.Metadata.String(models.MetadataUploaderIP))
		assert.Equal(t, "curl/8", item.Metadata.String(models.MetadataUserAgent))
		assert.Empty(t, store.deleted)
	})

	t.Run("default file name", func(t *testing.T) {
		repo := &mockMediaRepository{}
		store := &mockObjectStore{}
		svc := NewUploadService(repo, store, nil, nil, nil)

		item, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID: "T1", MimeType: "image/jpeg", Size: 3, Status: models.MediaStatusTest,
		}, strings.NewReader("abc"), info)

		require.NoError(t, err)
		assert.Equal(t, DefaultFileName, item.Metadata.String(models.MetadataOriginalFileName))
		assert.True(t, strings.HasSuffix(item.ObjectKey, ".jpg"))
		assert.Equal(t, models.MediaStatusTest, item.Status)
	})

	t.Run("missing mime type is rejected", func(t *testing.T) {
		store := &mockObjectStore{}
		svc := NewUploadService(&mockMediaRepository{}, store, nil, nil, nil)

		_, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID: "T1", FileName: "a.jpg", Size: 3,
		}, strings.NewReader("abc"), info)

		requireValidationError(t, err, "mimeType", "Only image uploads are supported")
		assert.Empty(t, store.putKey)
	})

	t.Run("declared size mismatch", func(t *testing.T) {
		store := &mockObjectStore{}
		svc := NewUploadService(&mockMediaRepository{}, store, nil, nil, nil)

		_, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID: "T1", MimeType: "image/png", DeclaredSize: int64Ptr(10), Size: 3,
		}, strings.NewReader("abc"), info)

		requireValidationError(t, err, "fileSizeBytes", "")
		assert.Empty(t, store.putKey)
	})

	t.Run("empty file", func(t *testing.T) {
		svc := NewUploadService(&mockMediaRepository{}, &mockObjectStore{}, nil, nil, nil)

		_, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID: "T1", MimeType: "image/png", Size: 0,
		}, strings.NewReader(""), info)

		requireValidationError(t, err, "fileSizeBytes", models.FileSizeMessage)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := &mockMediaRepository{}
		svc := NewUploadService(repo, &mockObjectStore{putErr: errors.New("bucket missing")}, nil, nil, nil)

		_, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID: "T1", MimeType: "image/png", Size: 3,
		}, strings.NewReader("abc"), info)

		require.Error(t, err)
		assert.False(t, repo.createCalled)
	})

	t.Run("insert failure removes object", func(t *testing.T) {
		store := &mockObjectStore{}
		svc := NewUploadService(&mockMediaRepository{createErr: errors.New("db down")}, store, nil, nil, nil)

		item, err := svc.ProxyUpload(context.Background(), &models.ProxyUploadRequest{
			TreeID: "T1", MimeType: "image/png", Size: 3,
		}, strings.NewReader("abc"), info)

		require.Error(t, err)
		assert.Nil(t, item)
		assert.Equal(t, []string{store.putKey}, store.deleted)
	})
}
