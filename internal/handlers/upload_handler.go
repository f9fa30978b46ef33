package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartMemory is how much of a proxied file is buffered in memory before spilling to disk
const multipartMemory = 8 << 20

// UploadService defines the interface for the upload pipeline
type UploadService interface {
	// IssueUploadURL validates an intended upload and returns a pre-authorized write URL.
	IssueUploadURL(ctx context.Context, req *models.IssueUploadURLRequest) (*models.IssueUploadURLResponse, error)
	// RecordUpload creates the media record for an object already written to storage.
	RecordUpload(ctx context.Context, req *models.RecordUploadRequest, info models.RequestInfo) (*models.MediaItem, error)
	// ProxyUpload writes body to storage and creates its media record.
	ProxyUpload(ctx context.Context, req *models.ProxyUploadRequest, body io.Reader, info models.RequestInfo) (*models.MediaItem, error)
}

// UploadHandler handles the upload endpoints
type UploadHandler struct {
	BaseHandler
	service UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(svc UploadService, recorder *metrics.Recorder, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		BaseHandler: BaseHandler{Logger: logger, Metrics: recorder},
		service:     svc,
	}
}

// RegisterRoutes registers all upload handler routes
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/issue-upload-url", h.IssueUploadURL)
	r.Post("/record-upload", h.RecordUpload)
	r.Post("/upload-proxy", h.UploadProxy)
}

// IssueUploadURL handles POST /issue-upload-url
// @Summary Issue a presigned upload URL
// @Description Validate an intended image upload and return a URL that accepts a single PUT for five minutes
// @Tags uploads
// @Accept json
// @Produce json
// @Param request body models.IssueUploadURLRequest true "Upload description"
// @Success 200 {object} models.IssueUploadURLResponse
// @Failure 400 {object} models.ErrorResponse "Invalid input"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /issue-upload-url [post]
func (h *UploadHandler) IssueUploadURL(w http.ResponseWriter, r *http.Request) {
	const endpoint = "issue-upload-url"

	var req models.IssueUploadURLRequest
	if err := decodeRequest(r, &req); err != nil {
		h.respondServiceError(w, r, endpoint, err, "Unable to create upload URL")
		return
	}

	resp, err := h.service.IssueUploadURL(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, endpoint, err, "Unable to create upload URL")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// RecordUpload handles POST /record-upload
// @Summary Record a direct upload
// @Description Verify that an object written through a presigned URL exists and create its media record
// @Tags uploads
// @Accept json
// @Produce json
// @Param request body models.RecordUploadRequest true "Uploaded object"
// @Success 200 {object} models.MediaResponse
// @Failure 400 {object} models.ErrorResponse "Invalid input or object not found in storage"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /record-upload [post]
func (h *UploadHandler) RecordUpload(w http.ResponseWriter, r *http.Request) {
	const endpoint = "record-upload"

	var req models.RecordUploadRequest
	if err := decodeRequest(r, &req); err != nil {
		h.respondServiceError(w, r, endpoint, err, "Unable to save media record")
		return
	}

	item, err := h.service.RecordUpload(r.Context(), &req, requestInfo(r))
	if err != nil {
		h.respondServiceError(w, r, endpoint, err, "Unable to save media record")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MediaResponse{Media: item})
}

// UploadProxy handles POST /upload-proxy
// @Summary Upload through the server
// @Description Fallback path: store the image bytes and create the media record in one request
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param treeId formData string true "Tree id"
// @Param file formData file true "Image file"
// @Param fileName formData string false "Original file name"
// @Param mimeType formData string false "Image mime type"
// @Param fileSizeBytes formData integer false "Declared file size"
// @Param status formData string false "Initial status"
// @Success 200 {object} models.MediaResponse
// @Failure 400 {object} models.ErrorResponse "Invalid input"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /upload-proxy [post]
func (h *UploadHandler) UploadProxy(w http.ResponseWriter, r *http.Request) {
	const endpoint = "upload-proxy"

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		h.Metrics.ValidationRejected(endpoint)
		h.RespondError(w, http.StatusBadRequest, "multipart/form-data required")
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.RespondError(w, http.StatusRequestEntityTooLarge, bodyTooLargeMessage)
			return
		}
		h.Metrics.ValidationRejected(endpoint)
		h.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	treeID := r.FormValue("treeId")
	if err := models.ValidateTreeID(treeID); err != nil {
		h.respondServiceError(w, r, endpoint, err, "Upload proxy failed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondServiceError(w, r, endpoint, models.NewValidationError("file", "file is required"), "Upload proxy failed")
		return
	}
	defer file.Close()

	req, err := buildProxyRequest(r, treeID, header)
	if err != nil {
		h.respondServiceError(w, r, endpoint, err, "Upload proxy failed")
		return
	}

	item, err := h.service.ProxyUpload(r.Context(), req, file, requestInfo(r))
	if err != nil {
		h.respondServiceError(w, r, endpoint, err, "Upload proxy failed")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MediaResponse{Media: item})
}

// decodeRequest reads and decodes a JSON request body
func decodeRequest(r *http.Request, dst any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	return decodeJSON(data, dst)
}

// buildProxyRequest reads the optional form fields, falling back to the file part's own name and type
func buildProxyRequest(r *http.Request, treeID string, header *multipart.FileHeader) (*models.ProxyUploadRequest, error) {
	req := &models.ProxyUploadRequest{
		TreeID:   treeID,
		FileName: r.FormValue("fileName"),
		MimeType: r.FormValue("mimeType"),
		Size:     header.Size,
	}
	if req.FileName == "" {
		req.FileName = header.Filename
	}
	if req.MimeType == "" {
		req.MimeType = header.Header.Get("Content-Type")
	}

	if raw := strings.TrimSpace(r.FormValue("fileSizeBytes")); raw != "" {
		declared, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, models.NewValidationError("fileSizeBytes", "fileSizeBytes must be an integer")
		}
		req.DeclaredSize = &declared
	}

	if raw := r.FormValue("status"); raw != "" {
		status, err := models.ParseMediaStatus(raw)
		if err != nil {
			return nil, err
		}
		req.Status = status
	}

	return req, nil
}
