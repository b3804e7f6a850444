package handlers

import (
	"encoding/json"
	"net/http"

	"couple-diary-backend/internal/middleware"
	"couple-diary-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// GameHandler handles daily question game HTTP requests
type GameHandler struct {
	gameService *services.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// Today handles GET /api/v1/game/today
func (h *GameHandler) Today(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	view, err := h.gameService.GetToday(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get today's question")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// AnswerRequest is the body for POST /game/answers
type AnswerRequest struct {
	Answer    string `json:"answer"`
	IsPrivate bool   `json:"is_private"`
}

// SubmitAnswer handles POST /api/v1/game/answers
func (h *GameHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, streak, err := h.gameService.SubmitAnswer(ctx, userID, req.Answer, req.IsPrivate)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to submit answer")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"response": resp,
		"streak":   streak,
	})
}

// ListAnswers handles GET /api/v1/game/answers?date=YYYY-MM-DD
func (h *GameHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	date := r.URL.Query().Get("date")

	responses, err := h.gameService.ListAnswers(ctx, userID, date)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list answers")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}

// Streak handles GET /api/v1/game/streak
func (h *GameHandler) Streak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	streak, err := h.gameService.GetStreak(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get streak")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, streak)
}

// QuestionRequest is the body for POST /game/questions
type QuestionRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// AddQuestion handles POST /api/v1/game/questions
func (h *GameHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	q, err := h.gameService.AddQuestion(ctx, userID, req.Text, req.Category)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to add question")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

// ReactionRequest is the body for the reaction toggle
type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

// ToggleReaction handles POST /api/v1/game/responses/{response_id}/reactions
func (h *GameHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	responseID := chi.URLParam(r, "response_id")

	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := h.gameService.ToggleReaction(ctx, userID, responseID, req.Emoji)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("response_id", responseID).Msg("Failed to toggle reaction")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// ReplyRequest is the body for POST .../replies
type ReplyRequest struct {
	Content   string `json:"content"`
	IsPrivate bool   `json:"is_private"`
}

// AddReply handles POST /api/v1/game/responses/{response_id}/replies
func (h *GameHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	responseID := chi.URLParam(r, "response_id")

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.gameService.AddReply(ctx, userID, responseID, req.Content, req.IsPrivate)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("response_id", responseID).Msg("Failed to add reply")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reply)
}

// ListReplies handles GET /api/v1/game/responses/{response_id}/replies
func (h *GameHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	responseID := chi.URLParam(r, "response_id")

	replies, err := h.gameService.ListReplies(ctx, userID, []string{responseID})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("response_id", responseID).Msg("Failed to list replies")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"replies": replies})
}
