package repository

import (
	"context"
	"errors"
	"fmt"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PlanRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Plan, error)
}

type planRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPlanRepository(db database.Querier, log *zap.Logger) PlanRepository {
	return &planRepository{
		db:  db,
		log: log.With(zap.String("repository", "plan")),
	}
}

// FindByID loads the plan with the duration of whichever subtype row exists.
// A plan with neither subtype is reported as an integrity error.
func (r *planRepository) FindByID(ctx context.Context, id int64) (*entity.Plan, error) {
	query := `
		SELECT p.plan_id, p.mentor_id, p.plan_type, p.plan_title, p.plan_description, p.plan_charge,
		       COALESCE(ps.session_duration, pm.mentorship_duration, 0), p.created_at
		FROM plans p
		LEFT JOIN plan_sessions ps ON ps.plan_id = p.plan_id
		LEFT JOIN plan_mentorships pm ON pm.plan_id = p.plan_id
		WHERE p.plan_id = $1
	`

	var (
		plan   entity.Plan
		charge int64
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.MentorID,
		&plan.Type,
		&plan.Title,
		&plan.Description,
		&charge,
		&plan.DurationMinutes,
		&plan.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find plan by ID", zap.Error(err), zap.Int64("plan_id", id))
		return nil, fmt.Errorf("find plan by ID %d: %w", id, err)
	}
	plan.Charge = entity.Money(charge)

	if plan.DurationMinutes <= 0 {
		r.log.Error("Plan has no session or mentorship record", zap.Int64("plan_id", id))
		return nil, fmt.Errorf("plan %d has no %s record", id, plan.Type)
	}

	return &plan, nil
}
