package handlers

import (
	"encoding/json"
	"net/http"

	"couple-diary-backend/internal/middleware"
	"couple-diary-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// DiaryHandler handles diary entry HTTP requests
type DiaryHandler struct {
	diaryService *services.DiaryService
}

// NewDiaryHandler creates a new diary handler
func NewDiaryHandler(diaryService *services.DiaryService) *DiaryHandler {
	return &DiaryHandler{diaryService: diaryService}
}

// List handles GET /api/v1/entries
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	entries, err := h.diaryService.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list entries")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

// Create handles POST /api/v1/entries
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.diaryService.Create(ctx, userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create entry")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// Get handles GET /api/v1/entries/{entry_id}
func (h *DiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	entryID := chi.URLParam(r, "entry_id")

	entry, err := h.diaryService.Get(ctx, userID, entryID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Update handles PUT /api/v1/entries/{entry_id}
func (h *DiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	entryID := chi.URLParam(r, "entry_id")

	var req services.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.diaryService.Update(ctx, userID, entryID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("entry_id", entryID).Msg("Failed to update entry")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /api/v1/entries/{entry_id}
func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	entryID := chi.URLParam(r, "entry_id")

	if err := h.diaryService.Delete(ctx, userID, entryID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("entry_id", entryID).Msg("Failed to delete entry")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
