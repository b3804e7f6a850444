package handlers

import (
	"encoding/json"
	"net/http"

	"couple-diary-backend/internal/middleware"
	"couple-diary-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo upload HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// Upload handles POST /api/v1/photos/upload
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.photoService.PresignUpload(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate pre-signed URL")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("photo_url", response.PhotoURL).Msg("Pre-signed URL generated")
	respondJSON(w, http.StatusOK, response)
}
