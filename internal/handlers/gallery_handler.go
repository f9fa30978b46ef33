package handlers

import (
	"context"
	"net/http"

	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GalleryService defines the interface for public media listings
type GalleryService interface {
	ListApproved(ctx context.Context, treeID string) ([]models.MediaItem, error)
}

// GalleryHandler handles the public gallery endpoint
type GalleryHandler struct {
	BaseHandler
	service GalleryService
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(svc GalleryService, recorder *metrics.Recorder, logger *zap.Logger) *GalleryHandler {
	return &GalleryHandler{
		BaseHandler: BaseHandler{Logger: logger, Metrics: recorder},
		service:     svc,
	}
}

// RegisterRoutes registers all gallery handler routes
func (h *GalleryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/trees/{treeId}/media", h.ListTreeMedia)
}

// ListTreeMedia handles GET /trees/{treeId}/media
// @Summary List approved media of a tree
// @Description Approved media of one tree, newest first
// @Tags gallery
// @Produce json
// @Param treeId path string true "Tree id"
// @Success 200 {object} models.GalleryResponse
// @Failure 400 {object} models.ErrorResponse "Invalid tree id"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /trees/{treeId}/media [get]
func (h *GalleryHandler) ListTreeMedia(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeId")

	items, err := h.service.ListApproved(r.Context(), treeID)
	if err != nil {
		h.respondServiceError(w, r, "tree-media", err, "Failed to load media")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.GalleryResponse{Items: items})
}
