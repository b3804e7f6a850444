package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-diary-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const questionColumns = `id, question_text, category, created_by, is_active, created_at`
const responseColumns = `id, question_id, question_text, answer, response_date, category, user_id, user_name, is_private, created_at`

// GameRepository handles database operations for the daily
// question game
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

func scanQuestion(row rowScanner) (*models.GameQuestion, error) {
	var q models.GameQuestion
	err := row.Scan(&q.ID, &q.Text, &q.Category, &q.CreatedBy, &q.IsActive, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("question %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}
	return &q, nil
}

func scanResponse(row rowScanner) (*models.GameResponse, error) {
	var resp models.GameResponse
	err := row.Scan(
		&resp.ID, &resp.QuestionID, &resp.QuestionText, &resp.Answer, &resp.Date,
		&resp.Category, &resp.UserID, &resp.UserName, &resp.IsPrivate, &resp.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("response %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan response: %w", err)
	}
	return &resp, nil
}

// CreateQuestion adds a question to the pool
func (r *GameRepository) CreateQuestion(ctx context.Context, q *models.GameQuestion) error {
	query := `
		INSERT INTO game_questions (id, question_text, category, created_by, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, q.ID, q.Text, q.Category, q.CreatedBy, q.IsActive, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetDaily retrieves the question assigned to a user for a date
func (r *GameRepository) GetDaily(ctx context.Context, userID, date string) (*models.DailyQuestion, error) {
	query := `
		SELECT dq.id, dq.question_id, dq.user_id, dq.question_date,
		       q.id, q.question_text, q.category, q.created_by, q.is_active, q.created_at
		FROM daily_questions dq
		JOIN game_questions q ON q.id = dq.question_id
		WHERE dq.user_id = $1 AND dq.question_date = $2
	`
	var dq models.DailyQuestion
	err := r.db.QueryRow(ctx, query, userID, date).Scan(
		&dq.ID, &dq.QuestionID, &dq.UserID, &dq.Date,
		&dq.Question.ID, &dq.Question.Text, &dq.Question.Category,
		&dq.Question.CreatedBy, &dq.Question.IsActive, &dq.Question.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("daily question %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get daily question: %w", err)
	}
	return &dq, nil
}

// AssignDaily idempotently assigns a random active question to
// (user, date). Calling it twice returns the same assignment: the
// insert is ON CONFLICT DO NOTHING and the existing row wins.
func (r *GameRepository) AssignDaily(ctx context.Context, userID, date string) (*models.DailyQuestion, error) {
	existing, err := r.GetDaily(ctx, userID, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	pick := `SELECT ` + questionColumns + ` FROM game_questions WHERE is_active ORDER BY random() LIMIT 1`
	q, err := scanQuestion(r.db.QueryRow(ctx, pick))
	if err != nil {
		return nil, err
	}

	insert := `
		INSERT INTO daily_questions (id, question_id, user_id, question_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, question_date) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, insert, uuid.New().String(), q.ID, userID, date); err != nil {
		return nil, fmt.Errorf("failed to assign daily question: %w", err)
	}

	// Re-select so a concurrent assignment that won the conflict
	// is returned instead of our candidate.
	return r.GetDaily(ctx, userID, date)
}

// CreateResponseAndDeactivate records an answer, retires the
// question and writes the advanced streak in one transaction. All
// three effects commit together or not at all, so a recorded
// answer always has its streak.
func (r *GameRepository) CreateResponseAndDeactivate(ctx context.Context, resp *models.GameResponse, streak *models.GameStreak) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO game_responses (id, question_id, question_text, answer, response_date, category, user_id, user_name, is_private, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, insert,
		resp.ID, resp.QuestionID, resp.QuestionText, resp.Answer, resp.Date,
		resp.Category, resp.UserID, resp.UserName, resp.IsPrivate, resp.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("response %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create response: %w", err)
	}

	deactivate := `UPDATE game_questions SET is_active = FALSE WHERE id = $1`
	if _, err := tx.Exec(ctx, deactivate, resp.QuestionID); err != nil {
		return fmt.Errorf("failed to deactivate question: %w", err)
	}

	if streak != nil {
		if err := upsertStreak(ctx, tx, streak); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit response: %w", err)
	}
	return nil
}

// GetResponseByID retrieves a response by ID
func (r *GameRepository) GetResponseByID(ctx context.Context, id string) (*models.GameResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM game_responses WHERE id = $1`
	return scanResponse(r.db.QueryRow(ctx, query, id))
}

// GetResponse retrieves the response for a (user, date) pair
func (r *GameRepository) GetResponse(ctx context.Context, userID, date string) (*models.GameResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM game_responses WHERE user_id = $1 AND response_date = $2`
	return scanResponse(r.db.QueryRow(ctx, query, userID, date))
}

// ListResponses retrieves the responses of the given users for a
// date, oldest first
func (r *GameRepository) ListResponses(ctx context.Context, userIDs []string, date string) ([]*models.GameResponse, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM game_responses
		WHERE user_id = ANY($1) AND response_date = $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userIDs, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses := []*models.GameResponse{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}
	return responses, nil
}

// AddReaction inserts a reaction if absent. Returns true when a
// row was inserted.
func (r *GameRepository) AddReaction(ctx context.Context, responseID, userID, emoji string) (bool, error) {
	query := `
		INSERT INTO game_reactions (id, response_id, user_id, emoji)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (response_id, user_id, emoji) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, uuid.New().String(), responseID, userID, emoji)
	if err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveReaction deletes a reaction if present. Returns true when
// a row was deleted.
func (r *GameRepository) RemoveReaction(ctx context.Context, responseID, userID, emoji string) (bool, error) {
	query := `DELETE FROM game_reactions WHERE response_id = $1 AND user_id = $2 AND emoji = $3`
	result, err := r.db.Exec(ctx, query, responseID, userID, emoji)
	if err != nil {
		return false, fmt.Errorf("failed to remove reaction: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// CountReactions returns the per-emoji tally for a response,
// straight from the table so it always matches the stored rows
func (r *GameRepository) CountReactions(ctx context.Context, responseID string) (map[string]int, error) {
	query := `SELECT emoji, COUNT(*) FROM game_reactions WHERE response_id = $1 GROUP BY emoji`
	rows, err := r.db.Query(ctx, query, responseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reactions: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var emoji string
		var n int
		if err := rows.Scan(&emoji, &n); err != nil {
			return nil, fmt.Errorf("failed to scan reaction count: %w", err)
		}
		counts[emoji] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reaction counts: %w", err)
	}
	return counts, nil
}

// CreateReply appends a reply to a response's thread
func (r *GameRepository) CreateReply(ctx context.Context, reply *models.GameReply) error {
	query := `
		INSERT INTO game_replies (id, response_id, user_id, content, is_private, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		reply.ID, reply.ResponseID, reply.UserID, reply.Content, reply.IsPrivate, reply.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("response %w", ErrNotFound)
		}
		return fmt.Errorf("failed to create reply: %w", err)
	}
	return nil
}

// ListReplies retrieves the reply threads for a set of responses,
// ascending by creation time
func (r *GameRepository) ListReplies(ctx context.Context, responseIDs []string) ([]*models.GameReply, error) {
	query := `
		SELECT rp.id, rp.response_id, rp.user_id, p.display_name, rp.content, rp.is_private, rp.created_at
		FROM game_replies rp
		JOIN profiles p ON p.id = rp.user_id
		WHERE rp.response_id = ANY($1)
		ORDER BY rp.created_at
	`
	rows, err := r.db.Query(ctx, query, responseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer rows.Close()

	replies := []*models.GameReply{}
	for rows.Next() {
		var rep models.GameReply
		err := rows.Scan(
			&rep.ID, &rep.ResponseID, &rep.UserID, &rep.UserName,
			&rep.Content, &rep.IsPrivate, &rep.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, &rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating replies: %w", err)
	}
	return replies, nil
}
