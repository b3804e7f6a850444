package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"couple-diary-backend/internal/models"
	"couple-diary-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GameService orchestrates the daily question game: assignment,
// answering, streaks, reactions and reply threads
type GameService struct {
	store    GameStore
	streaks  StreakStore
	profiles ProfileStore
	notifier Notifier

	retryAttempts int
	retryDelay    time.Duration
	now           func() time.Time
}

// NewGameService creates a new game service. retryAttempts is the
// number of additional fetch attempts after the first failure.
func NewGameService(store GameStore, streaks StreakStore, profiles ProfileStore, notifier Notifier, retryAttempts int, retryDelay time.Duration) *GameService {
	return &GameService{
		store:         store,
		streaks:       streaks,
		profiles:      profiles,
		notifier:      notifier,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		now:           time.Now,
	}
}

// Today returns the current calendar date
func (s *GameService) Today() string {
	return s.now().Format(models.DateLayout)
}

// TodayView is the state of the game for one user and one day
type TodayView struct {
	Question *models.DailyQuestion `json:"question"`
	Response *models.GameResponse  `json:"response,omitempty"`
	Answered bool                  `json:"answered"`
}

// GetToday idempotently gets or creates today's question for the
// user. When no active question exists the fetch is retried a
// bounded number of times with a fixed delay before giving up
// with ErrNoQuestionAvailable.
func (s *GameService) GetToday(ctx context.Context, userID string) (*TodayView, error) {
	date := s.Today()

	var dq *models.DailyQuestion
	var err error
	for attempt := 0; attempt <= s.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		dq, err = s.store.AssignDaily(ctx, userID, date)
		if err == nil {
			break
		}
		log.Warn().Err(err).Str("user_id", userID).Int("attempt", attempt+1).Msg("Daily question fetch failed")
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoQuestionAvailable
		}
		return nil, fmt.Errorf("failed to get today's question: %w", err)
	}

	view := &TodayView{Question: dq}
	resp, err := s.store.GetResponse(ctx, userID, date)
	if err == nil {
		view.Response = resp
		view.Answered = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return view, nil
}

// SubmitAnswer records the user's answer for today. The response
// insert, the question deactivation and the streak advance are one
// transaction; a failure means no answer was recorded at all. A
// second answer the same day is rejected and leaves the streak
// untouched.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, answer string, isPrivate bool) (*models.GameResponse, *models.GameStreak, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, nil, Validationf("answer must not be empty")
	}

	date := s.Today()
	dq, err := s.store.AssignDaily(ctx, userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNoQuestionAvailable
		}
		return nil, nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	resp := &models.GameResponse{
		ID:           uuid.New().String(),
		QuestionID:   dq.QuestionID,
		QuestionText: dq.Question.Text,
		Answer:       answer,
		Date:         date,
		Category:     dq.Question.Category,
		UserID:       userID,
		UserName:     profile.Name,
		IsPrivate:    isPrivate,
		CreatedAt:    s.now(),
	}

	streak, err := s.streaks.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	advanceStreak(streak, date)

	if err := s.store.CreateResponseAndDeactivate(ctx, resp, streak); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrAlreadyAnswered
		}
		return nil, nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("question_id", dq.QuestionID).
		Int("streak", streak.CurrentStreak).
		Msg("Daily answer recorded")

	if !isPrivate && profile.PartnerID != nil {
		s.notifier.Notify(ctx, *profile.PartnerID, Event{
			Type:  EventAnswerSubmitted,
			Title: "Daily question answered",
			Body:  fmt.Sprintf("%s answered today's question", profile.Name),
			Data:  map[string]interface{}{"response_id": resp.ID, "date": date},
		})
	}

	return resp, streak, nil
}

// GetStreak returns the user's streak
func (s *GameService) GetStreak(ctx context.Context, userID string) (*models.GameStreak, error) {
	return s.streaks.Get(ctx, userID)
}

// ListAnswers returns the responses of the user and their partner
// for a date. Private responses are visible only to their author.
func (s *GameService) ListAnswers(ctx context.Context, userID, date string) ([]*models.GameResponse, error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, Validationf("date must be in YYYY-MM-DD format")
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := []string{userID}
	if p.PartnerID != nil {
		ids = append(ids, *p.PartnerID)
	}

	responses, err := s.store.ListResponses(ctx, ids, date)
	if err != nil {
		return nil, err
	}

	visible := responses[:0]
	for _, r := range responses {
		if r.IsPrivate && r.UserID != userID {
			continue
		}
		visible = append(visible, r)
	}
	return visible, nil
}

// AddQuestion adds a custom question to the shared pool
func (s *GameService) AddQuestion(ctx context.Context, userID, text, category string) (*models.GameQuestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, Validationf("question text must not be empty")
	}
	if !models.ValidCategory(category) {
		return nil, Validationf("unknown category %q", category)
	}

	q := &models.GameQuestion{
		ID:        uuid.New().String(),
		Text:      text,
		Category:  category,
		CreatedBy: &userID,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// canAccessResponse checks that the requester may interact with a
// response: authors always, linked partners only when the response
// is shared. Anyone else gets ErrNotVisible.
func (s *GameService) canAccessResponse(ctx context.Context, userID string, resp *models.GameResponse) error {
	if resp.UserID == userID {
		return nil
	}
	if resp.IsPrivate {
		return ErrNotVisible
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if p.PartnerID == nil || *p.PartnerID != resp.UserID {
		return ErrNotVisible
	}
	return nil
}

// ReactionState is the result of a reaction toggle
type ReactionState struct {
	ResponseID string         `json:"response_id"`
	Emoji      string         `json:"emoji"`
	Active     bool           `json:"active"`
	Counts     map[string]int `json:"counts"`
}

// ToggleReaction adds the reaction when absent and removes it
// when present. Only the author and their partner may react, and
// the returned tally is read back from the store, so it always
// matches the true count.
func (s *GameService) ToggleReaction(ctx context.Context, userID, responseID, emoji string) (*ReactionState, error) {
	if emoji == "" {
		return nil, Validationf("emoji is required")
	}

	resp, err := s.store.GetResponseByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if err := s.canAccessResponse(ctx, userID, resp); err != nil {
		return nil, err
	}

	added, err := s.store.AddReaction(ctx, responseID, userID, emoji)
	if err != nil {
		return nil, err
	}
	if !added {
		if _, err := s.store.RemoveReaction(ctx, responseID, userID, emoji); err != nil {
			return nil, err
		}
	}

	counts, err := s.store.CountReactions(ctx, responseID)
	if err != nil {
		return nil, err
	}

	if added && resp.UserID != userID {
		s.notifier.Notify(ctx, resp.UserID, Event{
			Type: EventReactionToggled,
			Data: map[string]interface{}{"response_id": responseID, "emoji": emoji, "user_id": userID},
		})
	}

	return &ReactionState{
		ResponseID: responseID,
		Emoji:      emoji,
		Active:     added,
		Counts:     counts,
	}, nil
}

// AddReply appends a reply to a response's thread. Only the
// author and their partner may reply; the draft is rejected
// before any write when empty.
func (s *GameService) AddReply(ctx context.Context, userID, responseID, content string, isPrivate bool) (*models.GameReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Validationf("reply must not be empty")
	}

	resp, err := s.store.GetResponseByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if err := s.canAccessResponse(ctx, userID, resp); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	reply := &models.GameReply{
		ID:         uuid.New().String(),
		ResponseID: responseID,
		UserID:     userID,
		UserName:   profile.Name,
		Content:    content,
		IsPrivate:  isPrivate,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateReply(ctx, reply); err != nil {
		return nil, err
	}

	if resp.UserID != userID {
		s.notifier.Notify(ctx, resp.UserID, Event{
			Type:  EventReplyAdded,
			Title: "New reply",
			Body:  fmt.Sprintf("%s replied to your answer", profile.Name),
			Data:  map[string]interface{}{"response_id": responseID, "reply_id": reply.ID},
		})
	}

	return reply, nil
}

// ListReplies returns the reply threads for the given responses,
// ascending by creation time. Every response must belong to the
// requester's couple; private replies are visible only to their
// author.
func (s *GameService) ListReplies(ctx context.Context, userID string, responseIDs []string) ([]*models.GameReply, error) {
	if len(responseIDs) == 0 {
		return []*models.GameReply{}, nil
	}

	for _, id := range responseIDs {
		resp, err := s.store.GetResponseByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.canAccessResponse(ctx, userID, resp); err != nil {
			return nil, err
		}
	}

	replies, err := s.store.ListReplies(ctx, responseIDs)
	if err != nil {
		return nil, err
	}

	visible := replies[:0]
	for _, r := range replies {
		if r.IsPrivate && r.UserID != userID {
			continue
		}
		visible = append(visible, r)
	}
	return visible, nil
}
