package handlers

import (
	"context"
	"math"
	"net/http"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReviewService defines the interface for moderation operations
type ReviewService interface {
	// List returns one page of the moderation queue.
	List(ctx context.Context, req *models.ListMediaRequest) (*models.ListMediaResponse, error)
	// UpdateStatus moves a media item to another status.
	UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.MediaItem, error)
}

// ReviewHandler handles the moderation endpoint
type ReviewHandler struct {
	BaseHandler
	service ReviewService
	guard   func(http.Handler) http.Handler
}

// NewReviewHandler creates a new review handler.
// guard wraps the endpoint, typically with the API key middleware; nil leaves it open.
func NewReviewHandler(svc ReviewService, guard func(http.Handler) http.Handler, recorder *metrics.Recorder, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler: BaseHandler{Logger: logger, Metrics: recorder},
		service:     svc,
		guard:       guard,
	}
}

// RegisterRoutes registers all review handler routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard)
		}
		r.Post("/review-media", h.ReviewMedia)
	})
}

// ReviewMedia handles POST /review-media
// @Summary List or moderate media
// @Description action "list" (default) pages through media of one status, newest first; action "update" changes the status of one item
// @Tags review
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body object true "{action, status, limit, offset, treeIds} or {action: update, id, status}"
// @Success 200 {object} models.ListMediaResponse "action list"
// @Success 200 {object} models.MediaResponse "action update"
// @Failure 400 {object} models.ErrorResponse "Invalid input or unknown media"
// @Failure 401 {object} models.ErrorResponse "Invalid or missing API key"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /review-media [post]
func (h *ReviewHandler) ReviewMedia(w http.ResponseWriter, r *http.Request) {
	const endpoint = "review-media"

	data, err := readBody(r)
	if err != nil {
		h.respondServiceError(w, r, endpoint, err, "Review media request failed")
		return
	}

	var action models.ReviewActionRequest
	if err := decodeJSON(data, &action); err != nil {
		h.respondServiceError(w, r, endpoint, err, "Review media request failed")
		return
	}

	switch action.Action {
	case "", models.ReviewActionList:
		h.listMedia(w, r, data)
	case models.ReviewActionUpdate:
		h.updateStatus(w, r, data)
	default:
		h.Metrics.ValidationRejected(endpoint)
		h.RespondError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *ReviewHandler) listMedia(w http.ResponseWriter, r *http.Request, data []byte) {
	req, err := parseListRequest(data)
	if err != nil {
		h.respondServiceError(w, r, "review-media", err, "Failed to load media")
		return
	}

	resp, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, "review-media", err, "Failed to load media")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

func (h *ReviewHandler) updateStatus(w http.ResponseWriter, r *http.Request, data []byte) {
	var req models.UpdateStatusRequest
	if err := decodeJSON(data, &req); err != nil {
		h.respondServiceError(w, r, "review-media", err, "Failed to update status")
		return
	}

	item, err := h.service.UpdateStatus(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, "review-media", err, "Failed to update status")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MediaResponse{Media: item})
}

// parseListRequest decodes list filters leniently.
// Values of the wrong type are ignored and fall back to their defaults.
func parseListRequest(data []byte) (*models.ListMediaRequest, error) {
	var raw struct {
		Status  any `json:"status"`
		Limit   any `json:"limit"`
		Offset  any `json:"offset"`
		TreeIDs any `json:"treeIds"`
	}
	if err := decodeJSON(data, &raw); err != nil {
		return nil, err
	}

	req := &models.ListMediaRequest{}
	if status, ok := raw.Status.(string); ok {
		req.Status = status
	}
	if limit, ok := raw.Limit.(float64); ok {
		req.Limit = truncateInt(limit)
	}
	if offset, ok := raw.Offset.(float64); ok {
		req.Offset = truncateInt(offset)
	}
	if treeIDs, ok := raw.TreeIDs.([]any); ok {
		for _, treeID := range treeIDs {
			if s, ok := treeID.(string); ok {
				req.TreeIDs = append(req.TreeIDs, s)
			}
		}
	}

	return req, nil
}

// truncateInt converts a JSON number to int, saturating at the int32 range
func truncateInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int(v)
	}
}
