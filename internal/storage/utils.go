package storage

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix is the namespace every tree media object is stored under
const KeyPrefix = "tree-media"

const (
	fallbackTreeSegment = "tree"
	fallbackExtension   = "img"
)

var (
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	unsafeTreeIDRegex  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	safeExtensionRegex = regexp.MustCompile(`^[a-z0-9]+$`)
	nonWordRegex       = regexp.MustCompile(`[^\w]`)
)

var mimeExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/webp":    "webp",
	"image/gif":     "gif",
	"image/avif":    "avif",
	"image/heic":    "heic",
	"image/heif":    "heif",
	"image/svg+xml": "svg",
}

// SanitizeTreeID reduces a tree id to characters that are safe inside an object key.
// Whitespace runs become hyphens and everything outside [A-Za-z0-9_-] is dropped.
func SanitizeTreeID(treeID string) string {
	cleaned := whitespaceRegex.ReplaceAllString(strings.TrimSpace(treeID), "-")
	cleaned = unsafeTreeIDRegex.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return fallbackTreeSegment
	}
	return cleaned
}

// ResolveExtension picks the object key extension (without the dot).
//
// The trailing extension of fileName wins when it is alphanumeric; otherwise the
// extension is inferred from the mime type, falling back to "img".
func ResolveExtension(fileName, mimeType string) string {
	if idx := strings.LastIndex(fileName, "."); idx >= 0 {
		ext := strings.ToLower(fileName[idx+1:])
		if safeExtensionRegex.MatchString(ext) {
			return ext
		}
	}
	if ext := InferExtensionFromMimeType(mimeType); ext != "" {
		return ext
	}
	return fallbackExtension
}

// InferExtensionFromMimeType maps known image mime types to extensions.
// Unknown types use their subtype stripped to word characters.
func InferExtensionFromMimeType(mimeType string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	_, subtype, found := strings.Cut(mimeType, "/")
	if !found {
		return ""
	}
	return nonWordRegex.ReplaceAllString(subtype, "")
}

// BuildObjectKey generates a fresh key of the form tree-media/<treeId>/<uuid>.<ext>
func BuildObjectKey(treeID, fileName, mimeType string) string {
	return KeyPrefix + "/" + SanitizeTreeID(treeID) + "/" + GenerateFileName(ResolveExtension(fileName, mimeType))
}

// GenerateFileName generates a UUID-based file name with the provided extension
func GenerateFileName(extension string) string {
	newUUID := uuid.New().String()
	if extension == "" {
		return newUUID
	}
	return newUUID + "." + strings.TrimPrefix(extension, ".")
}
