package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/middlewares"
	"github.com/digitalforest/backend/internal/models"
	"github.com/digitalforest/backend/internal/services"
	"go.uber.org/zap"
)

// Messages returned for request bodies that cannot be decoded
const (
	invalidJSONMessage      = "Invalid JSON body"
	bodyTooLargeMessage     = "request body too large"
	methodNotAllowedMessage = "method not allowed"
)

// errBodyTooLarge marks bodies cut off by the request size limit
var errBodyTooLarge = errors.New(bodyTooLargeMessage)

// fieldTypeMessages is the message for a JSON field that has the wrong type
var fieldTypeMessages = map[string]string{
	"treeId":           "treeId is required",
	"s3Key":            "s3Key is required",
	"mimeType":         "Only image uploads are supported",
	"fileSizeBytes":    models.FileSizeMessage,
	"metadata":         "metadata must be an object",
	"originalFileName": "originalFileName must be a string",
	"fileName":         "fileName must be a string",
	"uploadedBy":       "uploadedBy must be a string",
	"status":           "invalid status",
	"id":               "id is required",
	"action":           "action must be a string",
}

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, models.ErrorResponse{Error: message})
}

// MethodNotAllowed responds 405 for routes that exist under another method
func (h *BaseHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.RespondError(w, http.StatusMethodNotAllowed, methodNotAllowedMessage)
}

// respondServiceError maps a service error to a response.
// Validation and lookup failures become 400, everything else is logged and answered
// with the generic failureMessage.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error, failureMessage string) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.Metrics.ValidationRejected(endpoint)
		h.RespondError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, errBodyTooLarge):
		h.RespondError(w, http.StatusRequestEntityTooLarge, bodyTooLargeMessage)
	case errors.Is(err, services.ErrUploadNotVerified):
		h.RespondError(w, http.StatusBadRequest, "Uploaded object could not be verified")
	case errors.Is(err, models.ErrMediaNotFound):
		h.RespondError(w, http.StatusBadRequest, models.ErrMediaNotFound.Error())
	default:
		h.Logger.Error("request failed",
			zap.String("endpoint", endpoint),
			zap.String("request_id", middlewares.GetRequestID(r.Context())),
			zap.Error(err),
		)
		h.RespondError(w, http.StatusInternalServerError, failureMessage)
	}
}

// readBody reads the whole request body
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, models.NewValidationError("body", invalidJSONMessage)
	}
	return data, nil
}

// decodeJSON decodes data into dst, turning decode failures into validation errors
// that name the offending field
func decodeJSON(data []byte, dst any) error {
	err := json.Unmarshal(data, dst)
	if err == nil {
		return nil
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		if message, ok := fieldTypeMessages[typeErr.Field]; ok {
			return models.NewValidationError(typeErr.Field, message)
		}
		return models.NewValidationError(typeErr.Field, typeErr.Field+" has an invalid type")
	}

	return models.NewValidationError("body", invalidJSONMessage)
}

// requestInfo extracts the requester details recorded in media metadata
func requestInfo(r *http.Request) models.RequestInfo {
	return models.RequestInfo{
		IP:        middlewares.ForwardedIP(r),
		UserAgent: r.UserAgent(),
	}
}
