package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Upload constraints shared by every entry point of the upload pipeline
const (
	MaxFileSize        = int64(50 * 1024 * 1024) // 50 MiB
	UploadURLExpiry    = 5 * time.Minute
	MaxTreeIDLength    = 255
	MaxObjectKeyLength = 512
	ImageMimePrefix    = "image/"
)

// MediaItem represents one uploaded photo and its moderation status
type MediaItem struct {
	ID            string      `json:"id" db:"id"`
	TreeID        string      `json:"treeId" db:"tree_id"`
	ObjectKey     string      `json:"s3Key" db:"s3_key"`
	PublicURL     string      `json:"publicUrl"`
	MimeType      string      `json:"mimeType" db:"mime_type"`
	FileSizeBytes int64       `json:"fileSizeBytes" db:"file_size_bytes"`
	Status        MediaStatus `json:"status" db:"status"`
	UploadedBy    *string     `json:"uploadedBy" db:"uploaded_by"`
	Metadata      Metadata    `json:"metadata" db:"metadata"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// MediaStatus is the moderation state of a media item
type MediaStatus string

const (
	MediaStatusPending  MediaStatus = "pending"
	MediaStatusApproved MediaStatus = "approved"
	MediaStatusFlagged  MediaStatus = "flagged"
	MediaStatusDeleted  MediaStatus = "deleted"
	MediaStatusTest     MediaStatus = "test"
	MediaStatusSkipped  MediaStatus = "skipped"
)

// MediaStatuses lists every valid moderation status
var MediaStatuses = []MediaStatus{
	MediaStatusPending,
	MediaStatusApproved,
	MediaStatusFlagged,
	MediaStatusDeleted,
	MediaStatusTest,
	MediaStatusSkipped,
}

// IsValid reports whether s is one of the known statuses
func (s MediaStatus) IsValid() bool {
	switch s {
	case MediaStatusPending,
		MediaStatusApproved,
		MediaStatusFlagged,
		MediaStatusDeleted,
		MediaStatusTest,
		MediaStatusSkipped:
		return true
	default:
		return false
	}
}

// ParseMediaStatus converts a raw string into a MediaStatus.
//
// Returns a validation error for the "status" field if the value is not a known status.
func ParseMediaStatus(raw string) (MediaStatus, error) {
	status := MediaStatus(raw)
	if !status.IsValid() {
		return "", NewValidationError("status", "invalid status")
	}
	return status, nil
}

// UnmarshalJSON rejects unknown statuses while decoding.
// An empty string or null leaves the status unset.
func (s *MediaStatus) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError("status", "invalid status")
	}
	if raw == "" {
		*s = ""
		return nil
	}

	status, err := ParseMediaStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// StatusList returns the known statuses as a comma-separated string
func StatusList() string {
	names := make([]string, 0, len(MediaStatuses))
	for _, status := range MediaStatuses {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

// FileSizeMessage is the rejection message for out-of-range file sizes
var FileSizeMessage = fmt.Sprintf("fileSizeBytes must be between 1 and %d", MaxFileSize)

// ErrMediaNotFound is returned when no media item has the requested id
var ErrMediaNotFound = errors.New("media not found")
