package models

// IssueUploadURLRequest is the body of POST /issue-upload-url
type IssueUploadURLRequest struct {
	TreeID        string `json:"treeId"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
}

// IssueUploadURLResponse carries the pre-authorized write URL for one object
type IssueUploadURLResponse struct {
	UploadURL   string            `json:"uploadUrl"`
	ObjectKey   string            `json:"objectKey"`
	ExpiresIn   int               `json:"expiresIn"`
	Bucket      string            `json:"bucket"`
	MaxFileSize int64             `json:"maxFileSize"`
	Headers     map[string]string `json:"headers"`
}

// RecordUploadRequest is the body of POST /record-upload
type RecordUploadRequest struct {
	TreeID           string      `json:"treeId"`
	ObjectKey        string      `json:"s3Key"`
	MimeType         string      `json:"mimeType"`
	FileSizeBytes    int64       `json:"fileSizeBytes"`
	OriginalFileName string      `json:"originalFileName,omitempty"`
	Metadata         Metadata    `json:"metadata,omitempty"`
	UploadedBy       *string     `json:"uploadedBy,omitempty"`
	Status           MediaStatus `json:"status,omitempty"`
}

// ProxyUploadRequest is the parsed multipart form of POST /upload-proxy.
// Size is the number of bytes actually received for the file part.
type ProxyUploadRequest struct {
	TreeID       string
	FileName     string
	MimeType     string
	DeclaredSize *int64
	Size         int64
	Status       MediaStatus
}

// MediaResponse wraps a single media item
type MediaResponse struct {
	Media *MediaItem `json:"media"`
}

// Review actions accepted by POST /review-media
const (
	ReviewActionList   = "list"
	ReviewActionUpdate = "update"
)

// ListMediaRequest filters the moderation queue.
// Status is kept as a raw string because unknown values fall back to pending.
type ListMediaRequest struct {
	Status  string   `json:"status,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
	TreeIDs []string `json:"treeIds,omitempty"`
}

// MediaFilter is a validated moderation queue query
type MediaFilter struct {
	Status  MediaStatus
	TreeIDs []string
	Limit   int
	Offset  int
}

// ListMediaResponse is one page of the moderation queue
type ListMediaResponse struct {
	Items  []MediaItem `json:"items"`
	Count  int         `json:"count"`
	Status MediaStatus `json:"status"`
}

// UpdateStatusRequest moves a media item to another status
type UpdateStatusRequest struct {
	ID     string      `json:"id"`
	Status MediaStatus `json:"status"`
}

// ReviewActionRequest selects the operation of POST /review-media.
// The rest of the body is decoded as ListMediaRequest or UpdateStatusRequest.
type ReviewActionRequest struct {
	Action string `json:"action,omitempty"`
}

// GalleryResponse lists the approved media of one tree
type GalleryResponse struct {
	Items []MediaItem `json:"items"`
}

// ErrorResponse is returned for any failed API request
type ErrorResponse struct {
	Error string `json:"error"`
}
