package repository

import (
	"context"
	"errors"
	"fmt"

	"couple-diary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const planColumns = `id, title, description, plan_date, plan_time, location, created_by, plan_type, created_at`

// PlanRepository handles database operations for shared plans
type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

func scanPlan(row rowScanner) (*models.SharedPlan, error) {
	var p models.SharedPlan
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Date, &p.Time,
		&p.Location, &p.CreatedBy, &p.PlanType, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("plan %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	return &p, nil
}

// Create inserts a new shared plan
func (r *PlanRepository) Create(ctx context.Context, p *models.SharedPlan) error {
	query := `
		INSERT INTO shared_plans (id, title, description, plan_date, plan_time, location, created_by, plan_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Title, p.Description, p.Date, p.Time, p.Location, p.CreatedBy, p.PlanType, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*models.SharedPlan, error) {
	query := `SELECT ` + planColumns + ` FROM shared_plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

// List retrieves plans created by any of the given users, ordered
// by date then time
func (r *PlanRepository) List(ctx context.Context, userIDs []string) ([]*models.SharedPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM shared_plans
		WHERE created_by = ANY($1)
		ORDER BY plan_date, plan_time NULLS LAST
	`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []*models.SharedPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return plans, nil
}

// Delete removes a plan by ID
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM shared_plans WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("plan %w", ErrNotFound)
	}
	return nil
}
