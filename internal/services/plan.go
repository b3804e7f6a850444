package services

import (
	"context"
	"strings"
	"time"

	"couple-diary-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlanService handles shared calendar plans
type PlanService struct {
	plans    PlanStore
	profiles ProfileStore
}

// NewPlanService creates a new plan service
func NewPlanService(plans PlanStore, profiles ProfileStore) *PlanService {
	return &PlanService{
		plans:    plans,
		profiles: profiles,
	}
}

// PlanRequest carries the writable fields of a shared plan
type PlanRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        string  `json:"date"`
	Time        *string `json:"time"`
	Location    *string `json:"location"`
	PlanType    string  `json:"plan_type"`
}

// Create validates and stores a new plan
func (s *PlanService) Create(ctx context.Context, userID string, req PlanRequest) (*models.SharedPlan, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, Validationf("title is required")
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return nil, Validationf("date must be in YYYY-MM-DD format")
	}
	if !models.ValidPlanType(req.PlanType) {
		return nil, Validationf("unknown plan type %q", req.PlanType)
	}

	plan := &models.SharedPlan{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		CreatedBy:   userID,
		PlanType:    req.PlanType,
		CreatedAt:   time.Now(),
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("plan_id", plan.ID).Msg("Plan created")
	return plan, nil
}

// List returns the plans of the user and their partner, ordered
// by date
func (s *PlanService) List(ctx context.Context, userID string) ([]*models.SharedPlan, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := []string{userID}
	if p.PartnerID != nil {
		ids = append(ids, *p.PartnerID)
	}
	return s.plans.List(ctx, ids)
}

// Delete removes a plan. Only the creator may delete.
func (s *PlanService) Delete(ctx context.Context, userID, planID string) error {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.CreatedBy != userID {
		return ErrNotPlanCreator
	}

	if err := s.plans.Delete(ctx, planID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Str("plan_id", planID).Msg("Plan deleted")
	return nil
}
