package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections, one per user (newest wins)
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
	profiles    ProfileStore
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(profiles ProfileStore) *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
		profiles:    profiles,
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")

	go h.notifyPartnerStatus(userID, true)
}

// Unregister removes a user's WebSocket connection. Only the
// given connection is removed, so a replaced connection cannot
// unregister its successor.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	current, ok := h.connections[userID]
	removed := ok && current == conn
	if removed {
		current.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
	h.mu.Unlock()

	if removed {
		go h.notifyPartnerStatus(userID, false)
	}
}

// IsOnline reports whether a user has a live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// notifyPartnerStatus tells the linked partner this user came
// online or went offline
func (h *WSHub) notifyPartnerStatus(userID string, online bool) {
	p, err := h.profiles.GetByID(context.Background(), userID)
	if err != nil || p.PartnerID == nil {
		return
	}

	msg := WSMessage{
		Type: EventPartnerStatus,
		Data: map[string]interface{}{
			"partner_id": userID,
			"online":     online,
		},
	}
	if err := h.SendToUser(*p.PartnerID, msg); err != nil {
		log.Debug().Str("partner_id", *p.PartnerID).Msg("Partner not reachable for status update")
	}
}
