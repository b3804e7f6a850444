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

// profileColumns is the canonical column list. Every read goes
// through scanProfile so the rest of the system always sees one
// fixed application shape.
const profileColumns = `id, email, display_name, avatar_url, partner_id, bio, birthday, anniversary, device_token, created_at, updated_at`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.Name, &p.AvatarURL, &p.PartnerID,
		&p.Bio, &p.Birthday, &p.Anniversary, &p.DeviceToken,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}

// Create inserts a new profile with its password hash. The
// identity and profile fields live in one row, so registration is
// a single atomic insert.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile, passwordHash string) error {
	query := `
		INSERT INTO profiles (id, email, password_hash, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Email, passwordHash, p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("email %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a profile by email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return scanProfile(r.db.QueryRow(ctx, query, email))
}

// GetCredentials retrieves the id and password hash for an email
func (r *ProfileRepository) GetCredentials(ctx context.Context, email string) (string, string, error) {
	query := `SELECT id, password_hash FROM profiles WHERE email = $1`
	var id, hash string
	err := r.db.QueryRow(ctx, query, email).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", fmt.Errorf("profile %w", ErrNotFound)
		}
		return "", "", fmt.Errorf("failed to get credentials: %w", err)
	}
	return id, hash, nil
}

// Update writes the mutable biography fields of a profile
func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $1, avatar_url = $2, bio = $3, birthday = $4, anniversary = $5, updated_at = now()
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query, p.Name, p.AvatarURL, p.Bio, p.Birthday, p.Anniversary, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %w", ErrNotFound)
	}
	return nil
}

// UpdateAvatar sets only the avatar URL
func (r *ProfileRepository) UpdateAvatar(ctx context.Context, userID, avatarURL string) error {
	query := `UPDATE profiles SET avatar_url = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %w", ErrNotFound)
	}
	return nil
}

// UpdateDeviceToken sets the APNs device token for a user
func (r *ProfileRepository) UpdateDeviceToken(ctx context.Context, userID string, token *string) error {
	query := `UPDATE profiles SET device_token = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}
	return nil
}

// LinkPartners sets both partner pointers in one transaction.
// Rows are locked in id order to avoid deadlocks between two
// concurrent link attempts.
func (r *ProfileRepository) LinkPartners(ctx context.Context, userID, partnerID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := userID, partnerID
	if first > second {
		first, second = second, first
	}
	lock := `SELECT id FROM profiles WHERE id = $1 FOR UPDATE`
	for _, id := range []string{first, second} {
		var locked string
		if err := tx.QueryRow(ctx, lock, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("profile %w", ErrNotFound)
			}
			return fmt.Errorf("failed to lock profile: %w", err)
		}
	}

	update := `UPDATE profiles SET partner_id = $1, updated_at = now() WHERE id = $2`
	if _, err := tx.Exec(ctx, update, partnerID, userID); err != nil {
		return fmt.Errorf("failed to link partner: %w", err)
	}
	if _, err := tx.Exec(ctx, update, userID, partnerID); err != nil {
		return fmt.Errorf("failed to link partner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit link: %w", err)
	}
	return nil
}

// UnlinkPartners clears both partner pointers in one transaction
func (r *ProfileRepository) UnlinkPartners(ctx context.Context, userID, partnerID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE profiles SET partner_id = NULL, updated_at = now() WHERE id = $1 AND partner_id = $2`
	if _, err := tx.Exec(ctx, query, userID, partnerID); err != nil {
		return fmt.Errorf("failed to unlink partner: %w", err)
	}
	if _, err := tx.Exec(ctx, query, partnerID, userID); err != nil {
		return fmt.Errorf("failed to unlink partner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unlink: %w", err)
	}
	return nil
}
