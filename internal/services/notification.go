package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Event types pushed over the realtime channel
const (
	EventPartnerStatus   = "partner_status"
	EventPartnerLinked   = "partner_linked"
	EventPartnerUnlinked = "partner_unlinked"
	EventEntryCreated    = "entry_created"
	EventAnswerSubmitted = "answer_submitted"
	EventReactionToggled = "reaction_toggled"
	EventReplyAdded      = "reply_added"
	EventError           = "error"
)

// Event is a realtime notification delivered to one user
type Event struct {
	Type  string
	Title string
	Body  string
	Data  map[string]interface{}
}

// Notifier delivers events to users. Services call it after a
// successful write; delivery failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, userID string, ev Event)
}

// NotificationService sends events over WebSocket when the user
// is connected and falls back to APNs push when they are not
type NotificationService struct {
	hub      *WSHub
	profiles ProfileStore
	apns     *apns2.Client
	topic    string
}

// APNSParams configures the optional push client
type APNSParams struct {
	Enabled bool
	KeyFile string
	KeyID   string
	TeamID  string
	Topic   string
}

// NewNotificationService creates a notification service. When
// APNs is disabled only WebSocket delivery is attempted.
func NewNotificationService(hub *WSHub, profiles ProfileStore, params APNSParams) (*NotificationService, error) {
	s := &NotificationService{
		hub:      hub,
		profiles: profiles,
		topic:    params.Topic,
	}

	if params.Enabled {
		authKey, err := token.AuthKeyFromFile(params.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
		}
		s.apns = apns2.NewTokenClient(&token.Token{
			AuthKey: authKey,
			KeyID:   params.KeyID,
			TeamID:  params.TeamID,
		}).Production()
	}

	return s, nil
}

// Notify delivers an event: WebSocket first, APNs push when the
// user is offline and has a registered device
func (s *NotificationService) Notify(ctx context.Context, userID string, ev Event) {
	if s.hub.IsOnline(userID) {
		msg := WSMessage{Type: ev.Type, Data: ev.Data}
		if err := s.hub.SendToUser(userID, msg); err == nil {
			return
		}
		log.Warn().Str("user_id", userID).Str("type", ev.Type).Msg("WebSocket delivery failed, trying push")
	}

	s.push(ctx, userID, ev)
}

func (s *NotificationService) push(ctx context.Context, userID string, ev Event) {
	if s.apns == nil || ev.Title == "" {
		return
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil || p.DeviceToken == nil {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: *p.DeviceToken,
		Topic:       s.topic,
		Payload: payload.NewPayload().
			AlertTitle(ev.Title).
			AlertBody(ev.Body).
			Sound("default"),
	}

	res, err := s.apns.PushWithContext(ctx, notification)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().Str("user_id", userID).Str("reason", res.Reason).Msg("APNs push rejected")
	}
}
