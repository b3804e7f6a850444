package handlers

import (
	"encoding/json"
	"net/http"

	"couple-diary-backend/internal/middleware"
	"couple-diary-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PlanHandler handles shared plan HTTP requests
type PlanHandler struct {
	planService *services.PlanService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// List handles GET /api/v1/plans
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	plans, err := h.planService.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list plans")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// Create handles POST /api/v1/plans
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := h.planService.Create(ctx, userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create plan")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

// Delete handles DELETE /api/v1/plans/{plan_id}
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	planID := chi.URLParam(r, "plan_id")

	if err := h.planService.Delete(ctx, userID, planID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("plan_id", planID).Msg("Failed to delete plan")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
