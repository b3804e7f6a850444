package services

import (
	"context"
	"errors"
	"time"

	"couple-diary-backend/internal/models"
)

// Business rejections surfaced to handlers. Handlers map these to
// HTTP status codes with errors.Is.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("an account with this email already exists")
	ErrSelfLink            = errors.New("you cannot link yourself as your partner")
	ErrPartnerNotFound     = errors.New("no account found for this email")
	ErrPartnerTaken        = errors.New("this person is already linked to someone else")
	ErrNoPartner           = errors.New("no partner is linked")
	ErrNotOwner            = errors.New("you do not own this entry")
	ErrNotVisible          = errors.New("this entry is not visible to you")
	ErrNoQuestionAvailable = errors.New("no question available today")
	ErrAlreadyAnswered     = errors.New("today's question is already answered")
	ErrNotPlanCreator      = errors.New("only the creator can delete a plan")
	ErrTokenRevoked        = errors.New("token has been revoked")
)

// ProfileStore is the profile persistence contract. The pgx
// repository implements it; tests substitute fakes.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile, passwordHash string) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetCredentials(ctx context.Context, email string) (id, passwordHash string, err error)
	Update(ctx context.Context, p *models.Profile) error
	UpdateAvatar(ctx context.Context, userID, avatarURL string) error
	UpdateDeviceToken(ctx context.Context, userID string, token *string) error
	LinkPartners(ctx context.Context, userID, partnerID string) error
	UnlinkPartners(ctx context.Context, userID, partnerID string) error
}

// DiaryStore is the diary entry persistence contract
type DiaryStore interface {
	Create(ctx context.Context, e *models.DiaryEntry) error
	GetByID(ctx context.Context, id string) (*models.DiaryEntry, error)
	List(ctx context.Context, userID string, partnerID *string) ([]*models.DiaryEntry, error)
	Update(ctx context.Context, e *models.DiaryEntry) error
	Delete(ctx context.Context, id, ownerID string) error
}

// GameStore is the daily game persistence contract
type GameStore interface {
	CreateQuestion(ctx context.Context, q *models.GameQuestion) error
	GetDaily(ctx context.Context, userID, date string) (*models.DailyQuestion, error)
	AssignDaily(ctx context.Context, userID, date string) (*models.DailyQuestion, error)
	CreateResponseAndDeactivate(ctx context.Context, resp *models.GameResponse, streak *models.GameStreak) error
	GetResponseByID(ctx context.Context, id string) (*models.GameResponse, error)
	GetResponse(ctx context.Context, userID, date string) (*models.GameResponse, error)
	ListResponses(ctx context.Context, userIDs []string, date string) ([]*models.GameResponse, error)
	AddReaction(ctx context.Context, responseID, userID, emoji string) (bool, error)
	RemoveReaction(ctx context.Context, responseID, userID, emoji string) (bool, error)
	CountReactions(ctx context.Context, responseID string) (map[string]int, error)
	CreateReply(ctx context.Context, reply *models.GameReply) error
	ListReplies(ctx context.Context, responseIDs []string) ([]*models.GameReply, error)
}

// StreakStore is the streak read contract injected into the game
// engine. The bundled implementation is server-authoritative
// Postgres; any store honoring this contract can replace it.
// Streak writes ride inside the answer transaction through
// GameStore.CreateResponseAndDeactivate.
type StreakStore interface {
	Get(ctx context.Context, userID string) (*models.GameStreak, error)
}

// PlanStore is the shared plan persistence contract
type PlanStore interface {
	Create(ctx context.Context, p *models.SharedPlan) error
	GetByID(ctx context.Context, id string) (*models.SharedPlan, error)
	List(ctx context.Context, userIDs []string) ([]*models.SharedPlan, error)
	Delete(ctx context.Context, id string) error
}

// Cache is a small key-value contract used for the profile cache
// and the token denylist
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
