package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-diary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The column list and scan below are exact inverses of each other:
// entry_date/owner_id/is_private on the wire, Date/OwnerID/IsPrivate
// in the application. All translation lives in this file.
const diaryColumns = `id, owner_id, entry_date, title, content, mood, is_private, photos, created_at, updated_at`

// DiaryRepository handles database operations for diary entries
type DiaryRepository struct {
	db *pgxpool.Pool
}

// NewDiaryRepository creates a new diary repository
func NewDiaryRepository(db *pgxpool.Pool) *DiaryRepository {
	return &DiaryRepository{db: db}
}

func scanEntry(row rowScanner) (*models.DiaryEntry, error) {
	var e models.DiaryEntry
	err := row.Scan(
		&e.ID, &e.OwnerID, &e.Date, &e.Title, &e.Content,
		&e.Mood, &e.IsPrivate, &e.Photos, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("diary entry %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan diary entry: %w", err)
	}
	if e.Photos == nil {
		e.Photos = []string{}
	}
	return &e, nil
}

// Create inserts a new diary entry
func (r *DiaryRepository) Create(ctx context.Context, e *models.DiaryEntry) error {
	query := `
		INSERT INTO diary_entries (id, owner_id, entry_date, title, content, mood, is_private, photos, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.OwnerID, e.Date, e.Title, e.Content,
		e.Mood, e.IsPrivate, e.Photos, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create diary entry: %w", err)
	}
	return nil
}

// GetByID retrieves a diary entry by ID
func (r *DiaryRepository) GetByID(ctx context.Context, id string) (*models.DiaryEntry, error) {
	query := `SELECT ` + diaryColumns + ` FROM diary_entries WHERE id = $1`
	return scanEntry(r.db.QueryRow(ctx, query, id))
}

// List retrieves entries owned by the user plus the partner's
// non-private entries, newest first. With no partner the single
// operand filter runs instead.
func (r *DiaryRepository) List(ctx context.Context, userID string, partnerID *string) ([]*models.DiaryEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if partnerID != nil {
		query := `
			SELECT ` + diaryColumns + `
			FROM diary_entries
			WHERE owner_id = $1 OR (owner_id = $2 AND NOT is_private)
			ORDER BY entry_date DESC, created_at DESC
		`
		rows, err = r.db.Query(ctx, query, userID, *partnerID)
	} else {
		query := `
			SELECT ` + diaryColumns + `
			FROM diary_entries
			WHERE owner_id = $1
			ORDER BY entry_date DESC, created_at DESC
		`
		rows, err = r.db.Query(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list diary entries: %w", err)
	}
	defer rows.Close()

	entries := []*models.DiaryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating diary entries: %w", err)
	}
	return entries, nil
}

// Update rewrites an entry's mutable fields, owner-scoped
func (r *DiaryRepository) Update(ctx context.Context, e *models.DiaryEntry) error {
	query := `
		UPDATE diary_entries
		SET entry_date = $1, title = $2, content = $3, mood = $4, is_private = $5, photos = $6, updated_at = now()
		WHERE id = $7 AND owner_id = $8
	`
	result, err := r.db.Exec(ctx, query,
		e.Date, e.Title, e.Content, e.Mood, e.IsPrivate, e.Photos, e.ID, e.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update diary entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("diary entry %w", ErrNotFound)
	}
	return nil
}

// Delete removes an entry, owner-scoped
func (r *DiaryRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM diary_entries WHERE id = $1 AND owner_id = $2`
	result, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("diary entry %w", ErrNotFound)
	}
	return nil
}
