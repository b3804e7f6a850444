package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"couple-diary-backend/internal/models"
	"couple-diary-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const profileCachePrefix = "profile:"

// ProfileService derives the viewer's profile and linked partner,
// and manages the mutual partner link
type ProfileService struct {
	profiles ProfileStore
	cache    Cache
	notifier Notifier
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore, cache Cache, notifier Notifier) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		cache:    cache,
		notifier: notifier,
	}
}

// Get returns a profile, serving from the cache when possible.
// Cached entries never expire; they are busted explicitly by
// writes.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	key := profileCachePrefix + userID
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var p models.Profile
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p, nil
		}
		// Unreadable cache entry: drop it and fall through to the DB.
		_ = s.cache.Del(ctx, key)
	} else if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Profile cache read failed")
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(ctx, key, string(data), 0); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Profile cache write failed")
		}
	}
	return p, nil
}

// GetPartner returns the linked partner's minimal profile, or
// ErrNoPartner without performing any lookup when no partner is
// set
func (s *ProfileService) GetPartner(ctx context.Context, userID string) (*models.PartnerInfo, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.PartnerID == nil {
		return nil, ErrNoPartner
	}

	partner, err := s.Get(ctx, *p.PartnerID)
	if err != nil {
		return nil, err
	}
	return &models.PartnerInfo{
		ID:        partner.ID,
		Name:      partner.Name,
		AvatarURL: partner.AvatarURL,
	}, nil
}

// UpdateRequest carries the mutable biography fields
type UpdateRequest struct {
	Name        string  `json:"name"`
	Bio         *string `json:"bio"`
	Birthday    *string `json:"birthday"`
	Anniversary *string `json:"anniversary"`
}

// Update writes biography fields and busts the cache entry
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateRequest) (*models.Profile, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, Validationf("name is required")
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Bio = req.Bio
	p.Birthday = req.Birthday
	p.Anniversary = req.Anniversary

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)

	return s.Get(ctx, userID)
}

// SetAvatar points the profile at a newly uploaded avatar object.
// The row is updated only after the upload succeeded, so the
// profile never references a missing object.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, avatarURL string) error {
	if err := s.profiles.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// RegisterDevice stores the APNs device token for push delivery
func (s *ProfileService) RegisterDevice(ctx context.Context, userID string, token *string) error {
	if err := s.profiles.UpdateDeviceToken(ctx, userID, token); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// LinkPartner establishes the mutual partner link by email. Both
// pointers are written in a single transaction; re-linking an
// already linked couple is a no-op.
func (s *ProfileService) LinkPartner(ctx context.Context, userID, partnerEmail string) (*models.PartnerInfo, error) {
	partnerEmail = strings.ToLower(strings.TrimSpace(partnerEmail))

	me, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if partnerEmail == me.Email {
		return nil, ErrSelfLink
	}

	partner, err := s.profiles.GetByEmail(ctx, partnerEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPartnerNotFound
		}
		return nil, err
	}

	if partner.PartnerID != nil && *partner.PartnerID != userID {
		return nil, ErrPartnerTaken
	}
	if me.PartnerID != nil && *me.PartnerID != partner.ID {
		return nil, ErrPartnerTaken
	}

	alreadyLinked := partner.PartnerID != nil && *partner.PartnerID == userID &&
		me.PartnerID != nil && *me.PartnerID == partner.ID

	if !alreadyLinked {
		if err := s.profiles.LinkPartners(ctx, userID, partner.ID); err != nil {
			return nil, err
		}
		s.invalidate(ctx, userID, partner.ID)

		log.Info().Str("user_id", userID).Str("partner_id", partner.ID).Msg("Partners linked")
		s.notifier.Notify(ctx, partner.ID, Event{
			Type: EventPartnerLinked,
			Data: map[string]interface{}{"partner_id": userID, "partner_name": me.Name},
		})
	}

	return &models.PartnerInfo{
		ID:        partner.ID,
		Name:      partner.Name,
		AvatarURL: partner.AvatarURL,
	}, nil
}

// UnlinkPartner dissolves the mutual link in one transaction
func (s *ProfileService) UnlinkPartner(ctx context.Context, userID string) error {
	me, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if me.PartnerID == nil {
		return ErrNoPartner
	}
	partnerID := *me.PartnerID

	if err := s.profiles.UnlinkPartners(ctx, userID, partnerID); err != nil {
		return err
	}
	s.invalidate(ctx, userID, partnerID)

	log.Info().Str("user_id", userID).Str("partner_id", partnerID).Msg("Partners unlinked")
	s.notifier.Notify(ctx, partnerID, Event{
		Type: EventPartnerUnlinked,
		Data: map[string]interface{}{"partner_id": userID},
	})
	return nil
}

func (s *ProfileService) invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = profileCachePrefix + id
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("user_ids", userIDs).Msg("Profile cache invalidation failed")
	}
}
