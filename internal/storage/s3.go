package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/digitalforest/backend/internal/config"
)

// s3Store implements ObjectStore on an S3-compatible backend
type s3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	publicBaseURL string
}

// NewS3Store creates an S3 object store from the object store configuration.
// Path-style addressing is forced so S3-compatible endpoints work.
func NewS3Store(ctx context.Context, cfg config.ObjectStoreConfig) (*s3Store, error) {
	sdkConfig, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(cfg.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &s3Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucketName:    cfg.Bucket,
		publicBaseURL: cfg.PublicURLBase(),
	}, nil
}

// PresignPut creates a temporary URL for uploading (PUT) a single object
func (s *s3Store) PresignPut(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign put for %q: %w", objectKey, err)
	}
	return req.URL, nil
}

// Put uploads the object body directly
func (s *s3Store) Put(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(objectKey),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		Body:          reader,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q: %w", objectKey, err)
	}
	return nil
}

// Exists probes the object with a HEAD request
func (s *s3Store) Exists(ctx context.Context, objectKey string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err == nil {
		return nil
	}
	if isS3NotFound(err) {
		return ErrObjectNotFound
	}
	return fmt.Errorf("failed to head object %q: %w", objectKey, err)
}

// Delete removes an object from the bucket
func (s *s3Store) Delete(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", objectKey, err)
	}
	return nil
}

// PublicURL returns the readable address of an object
func (s *s3Store) PublicURL(objectKey string) string {
	return publicURL(s.publicBaseURL, objectKey)
}

// Bucket returns the configured bucket name
func (s *s3Store) Bucket() string {
	return s.bucketName
}

// isS3NotFound reports whether err means the object does not exist
func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == http.StatusText(http.StatusNotFound)
	}
	return false
}
