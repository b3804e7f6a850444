package handlers

import (
	"encoding/json"
	"net/http"

	"couple-diary-backend/internal/middleware"
	"couple-diary-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile and partner HTTP requests
type ProfileHandler struct {
	profileService *services.ProfileService
	photoService   *services.PhotoService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService, photoService *services.PhotoService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		photoService:   photoService,
	}
}

// GetMe handles GET /api/v1/profiles/me
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	profile, err := h.profileService.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get profile")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /api/v1/profiles/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.profileService.Update(ctx, userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// AvatarRequest is the body for POST /profiles/me/avatar
type AvatarRequest struct {
	ContentType string `json:"content_type"`
	PhotoURL    string `json:"photo_url"`
}

// Avatar handles POST /api/v1/profiles/me/avatar. Without a
// photo_url it returns a pre-signed upload slot; with one it
// finalizes the avatar after the client uploaded the object.
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PhotoURL != "" {
		if err := h.profileService.SetAvatar(ctx, userID, req.PhotoURL); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to set avatar")
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	upload, err := h.photoService.PresignAvatarUpload(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to presign avatar upload")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, upload)
}

// DeviceRequest is the body for POST /profiles/me/device
type DeviceRequest struct {
	Token *string `json:"token"`
}

// RegisterDevice handles POST /api/v1/profiles/me/device
func (h *ProfileHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req DeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.profileService.RegisterDevice(ctx, userID, req.Token); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register device")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPartner handles GET /api/v1/profiles/partner
func (h *ProfileHandler) GetPartner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	partner, err := h.profileService.GetPartner(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, partner)
}

// LinkPartnerRequest is the body for POST /profiles/partner
type LinkPartnerRequest struct {
	Email string `json:"email"`
}

// LinkPartner handles POST /api/v1/profiles/partner
func (h *ProfileHandler) LinkPartner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req LinkPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		respondError(w, "email is required", http.StatusBadRequest)
		return
	}

	partner, err := h.profileService.LinkPartner(ctx, userID, req.Email)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to link partner")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("partner_id", partner.ID).Msg("Partner linked")
	respondJSON(w, http.StatusOK, partner)
}

// UnlinkPartner handles DELETE /api/v1/profiles/partner
func (h *ProfileHandler) UnlinkPartner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.profileService.UnlinkPartner(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to unlink partner")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
