package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/digitalforest/backend/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStore implements ObjectStore with the MinIO client
type minioStore struct {
	client        *minio.Client
	bucketName    string
	publicBaseURL string
}

// NewMinioStore creates a MinIO-backed object store.
// The configured endpoint URL decides the host and whether TLS is used.
func NewMinioStore(cfg config.ObjectStoreConfig) (*minioStore, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid object store endpoint %q", cfg.Endpoint)
	}

	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       endpoint.Scheme == "https",
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioStore{
		client:        client,
		bucketName:    cfg.Bucket,
		publicBaseURL: cfg.PublicURLBase(),
	}, nil
}

func (s *minioStore) PresignPut(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucketName, objectKey, expires)
	if err != nil {
		return "", fmt.Errorf("failed to presign put for %q: %w", objectKey, err)
	}
	return u.String(), nil
}

func (s *minioStore) Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", objectKey, err)
	}
	return nil
}

func (s *minioStore) Exists(ctx context.Context, objectKey string) error {
	_, err := s.client.StatObject(ctx, s.bucketName, objectKey, minio.StatObjectOptions{})
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return ErrObjectNotFound
	}
	return fmt.Errorf("failed to stat object %q: %w", objectKey, err)
}

func (s *minioStore) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %q: %w", objectKey, err)
	}
	return nil
}

func (s *minioStore) PublicURL(objectKey string) string {
	return publicURL(s.publicBaseURL, objectKey)
}

func (s *minioStore) Bucket() string {
	return s.bucketName
}
