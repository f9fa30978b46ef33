package models

import (
	"strings"
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateTreeID checks that the tree id is a non-empty string after trimming
func ValidateTreeID(treeID string) error {
	trimmed := strings.TrimSpace(treeID)
	if trimmed == "" {
		return NewValidationError("treeId", "treeId is required")
	}
	if len(trimmed) > MaxTreeIDLength {
		return NewValidationError("treeId", "treeId is too long")
	}
	return nil
}

// ValidateImageMimeType checks that the mime type denotes an image
func ValidateImageMimeType(mimeType string) error {
	if !IsImageMimeType(mimeType) {
		return NewValidationError("mimeType", "Only image uploads are supported")
	}
	return nil
}

// IsImageMimeType reports whether mimeType starts with "image/"
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(mimeType, ImageMimePrefix)
}

// ValidateFileSize checks that 0 < size <= MaxFileSize
func ValidateFileSize(size int64) error {
	if size <= 0 || size > MaxFileSize {
		return NewValidationError("fileSizeBytes", FileSizeMessage)
	}
	return nil
}

// ValidateObjectKey checks that the object key is present and fits the store
func ValidateObjectKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return NewValidationError("s3Key", "s3Key is required")
	}
	if len(key) > MaxObjectKeyLength {
		return NewValidationError("s3Key", "s3Key is too long")
	}
	return nil
}

// ValidateUpload runs the checks shared by every upload entry point
func ValidateUpload(treeID, mimeType string, size int64) error {
	if err := ValidateTreeID(treeID); err != nil {
		return err
	}
	if err := ValidateImageMimeType(mimeType); err != nil {
		return err
	}
	return ValidateFileSize(size)
}
