package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-diary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreakRepository is the server-authoritative streak reader. The
// game engine only sees the services.StreakStore contract, so this
// implementation can be swapped without touching call sites.
// Streak writes happen inside the answer transaction, see
// GameRepository.CreateResponseAndDeactivate.
type StreakRepository struct {
	db *pgxpool.Pool
}

// NewStreakRepository creates a new streak repository
func NewStreakRepository(db *pgxpool.Pool) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get returns the streak for a user, or the zero streak when the
// user has never played
func (r *StreakRepository) Get(ctx context.Context, userID string) (*models.GameStreak, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, last_played_date, total_questions_answered
		FROM game_streaks
		WHERE user_id = $1
	`
	var s models.GameStreak
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.LastPlayedDate, &s.TotalQuestionsAnswered,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.GameStreak{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return &s, nil
}

// execer is satisfied by both the pool and an open transaction,
// so the streak upsert can join the answer transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// upsertStreak writes the streak row through the given executor
func upsertStreak(ctx context.Context, exec execer, s *models.GameStreak) error {
	query := `
		INSERT INTO game_streaks (user_id, current_streak, longest_streak, last_played_date, total_questions_answered)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = EXCLUDED.longest_streak,
		    last_played_date = EXCLUDED.last_played_date,
		    total_questions_answered = EXCLUDED.total_questions_answered
	`
	_, err := exec.Exec(ctx, query,
		s.UserID, s.CurrentStreak, s.LongestStreak, s.LastPlayedDate, s.TotalQuestionsAnswered,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}
	return nil
}
