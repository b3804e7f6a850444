package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"couple-diary-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	authService    *services.AuthService
	profileService *services.ProfileService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	authService *services.AuthService,
	profileService *services.ProfileService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		authService:    authService,
		profileService: profileService,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.authService.ValidateJWT(r.Context(), token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	h.sendPartnerStatus(ctx, userID)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// Handle messages
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(userID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg services.WSMessage) error {
	switch msg.Type {
	case "ping":
		return h.hub.SendToUser(userID, services.WSMessage{Type: "pong"})
	case "partner_status":
		h.sendPartnerStatus(ctx, userID)
		return nil
	default:
		return h.sendError(userID, "Unknown message type")
	}
}

// sendPartnerStatus tells a user whether their partner is online.
// A user without a partner gets has_partner=false.
func (h *WebSocketHandler) sendPartnerStatus(ctx context.Context, userID string) {
	msg := services.WSMessage{
		Type: services.EventPartnerStatus,
		Data: map[string]interface{}{
			"has_partner": false,
		},
	}

	partner, err := h.profileService.GetPartner(ctx, userID)
	switch {
	case err == nil:
		msg.Data = map[string]interface{}{
			"has_partner": true,
			"partner_id":  partner.ID,
			"online":      h.hub.IsOnline(partner.ID),
		}
	case errors.Is(err, services.ErrNoPartner):
		// keep the no-partner payload
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve partner for status message")
		return
	}

	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send partner_status message")
	}
}

func (h *WebSocketHandler) sendError(userID, message string) error {
	return h.hub.SendToUser(userID, services.WSMessage{
		Type:    services.EventError,
		Message: message,
	})
}
