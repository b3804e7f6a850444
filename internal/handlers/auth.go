package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"couple-diary-backend/internal/models"
	"couple-diary-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest is the body for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse carries the profile plus its session token
type SessionResponse struct {
	Profile *models.Profile `json:"profile"`
	Token   string          `json:"token"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to register")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", profile.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, SessionResponse{Profile: profile, Token: token})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", req.Email).Msg("Failed login attempt")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", profile.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, SessionResponse{Profile: profile, Token: token})
}

// Logout handles POST /api/v1/auth/logout. The presented token is
// revoked for its remaining lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), parts[1]); err != nil {
		log.Error().Err(err).Msg("Failed to revoke token")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
