package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"couple-diary-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DiaryService handles diary entry business logic
type DiaryService struct {
	entries  DiaryStore
	profiles ProfileStore
	notifier Notifier
}

// NewDiaryService creates a new diary service
func NewDiaryService(entries DiaryStore, profiles ProfileStore, notifier Notifier) *DiaryService {
	return &DiaryService{
		entries:  entries,
		profiles: profiles,
		notifier: notifier,
	}
}

// EntryRequest carries the writable fields of a diary entry
type EntryRequest struct {
	Date      string   `json:"date"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Mood      string   `json:"mood"`
	IsPrivate bool     `json:"is_private"`
	Photos    []string `json:"photos"`
}

func (r *EntryRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return Validationf("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return Validationf("content is required")
	}
	if _, err := time.Parse(models.DateLayout, r.Date); err != nil {
		return Validationf("date must be in YYYY-MM-DD format")
	}
	if !models.ValidMood(r.Mood) {
		return Validationf("unknown mood %q", r.Mood)
	}
	return nil
}

// List returns the user's entries plus the partner's non-private
// entries, newest first
func (s *DiaryService) List(ctx context.Context, userID string) ([]*models.DiaryEntry, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.entries.List(ctx, userID, p.PartnerID)
}

// Create validates and stores a new entry, then notifies the
// partner when the entry is shared
func (s *DiaryService) Create(ctx context.Context, userID string, req EntryRequest) (*models.DiaryEntry, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	photos := req.Photos
	if photos == nil {
		photos = []string{}
	}

	now := time.Now()
	entry := &models.DiaryEntry{
		ID:        uuid.New().String(),
		OwnerID:   userID,
		Date:      req.Date,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Mood:      req.Mood,
		IsPrivate: req.IsPrivate,
		Photos:    photos,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("entry_id", entry.ID).Msg("Diary entry created")

	if !entry.IsPrivate {
		if p, err := s.profiles.GetByID(ctx, userID); err == nil && p.PartnerID != nil {
			s.notifier.Notify(ctx, *p.PartnerID, Event{
				Type:  EventEntryCreated,
				Title: "New diary entry",
				Body:  fmt.Sprintf("%s wrote a new entry", p.Name),
				Data:  map[string]interface{}{"entry_id": entry.ID, "owner_id": userID},
			})
		}
	}

	return entry, nil
}

// Get returns one entry if the requester may see it: owners see
// everything, partners see non-private entries
func (s *DiaryService) Get(ctx context.Context, userID, entryID string) (*models.DiaryEntry, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.OwnerID == userID {
		return entry, nil
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.PartnerID != nil && *p.PartnerID == entry.OwnerID && !entry.IsPrivate {
		return entry, nil
	}
	return nil, ErrNotVisible
}

// Update rewrites an entry. Only the owner may edit; id, owner
// and timestamps survive unchanged except updated_at.
func (s *DiaryService) Update(ctx context.Context, userID, entryID string, req EntryRequest) (*models.DiaryEntry, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.OwnerID != userID {
		return nil, ErrNotOwner
	}

	entry.Date = req.Date
	entry.Title = strings.TrimSpace(req.Title)
	entry.Content = req.Content
	entry.Mood = req.Mood
	entry.IsPrivate = req.IsPrivate
	if req.Photos != nil {
		entry.Photos = req.Photos
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("entry_id", entryID).Msg("Diary entry updated")
	return s.entries.GetByID(ctx, entryID)
}

// Delete removes an entry. Only the owner may delete.
func (s *DiaryService) Delete(ctx context.Context, userID, entryID string) error {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.OwnerID != userID {
		return ErrNotOwner
	}

	if err := s.entries.Delete(ctx, entryID, userID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Str("entry_id", entryID).Msg("Diary entry deleted")
	return nil
}
