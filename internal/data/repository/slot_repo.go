package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *entity.Slot) error
	FindByKey(ctx context.Context, key entity.SlotKey) (*entity.Slot, error)
	ListByPlan(ctx context.Context, planID int64, status *entity.SlotStatus, limit, offset int) ([]*entity.Slot, error)
	CountByPlan(ctx context.Context, planID int64, status *entity.SlotStatus) (int64, error)

	// Claim flips an available slot to booked in one conditional statement.
	// It returns ErrSlotNotAvailable when no available row matched.
	Claim(ctx context.Context, key entity.SlotKey) error
	// Transition moves a slot to status `to` only if it is currently in one
	// of `from`. It returns ErrSlotNotAvailable when no row matched.
	Transition(ctx context.Context, key entity.SlotKey, from []entity.SlotStatus, to entity.SlotStatus) error
}

type slotRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSlotRepository(db database.Querier, log *zap.Logger) SlotRepository {
	return &slotRepository{
		db:  db,
		log: log.With(zap.String("repository", "slot")),
	}
}

const slotColumns = `mentor_id, plan_id, date, start_time, end_time, status, created_at, updated_at`

func scanSlot(row pgx.Row) (*entity.Slot, error) {
	var (
		slot       entity.Slot
		date       time.Time
		start, end pgtype.Time
	)
	err := row.Scan(
		&slot.MentorID,
		&slot.PlanID,
		&date,
		&start,
		&end,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	slot.Start = fromPgTime(slot.Date, start)
	slot.End = fromPgTime(slot.Date, end)
	return &slot, nil
}

func keyArgs(key entity.SlotKey) []any {
	return []any{key.MentorID, key.PlanID, toPgDate(key.Date), toPgTime(key.Start), toPgTime(key.End)}
}

func (r *slotRepository) Create(ctx context.Context, slot *entity.Slot) error {
	query := `
		INSERT INTO slots (mentor_id, plan_id, date, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	args := append(keyArgs(slot.SlotKey), slot.Status, slot.CreatedAt, slot.UpdatedAt)
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create slot %s: %w", slot.SlotKey, ErrDuplicate)
		}
		r.log.Error("Failed to create slot", zap.Error(err), zap.Stringer("slot", slot.SlotKey))
		return fmt.Errorf("create slot %s: %w", slot.SlotKey, err)
	}

	return nil
}

func (r *slotRepository) FindByKey(ctx context.Context, key entity.SlotKey) (*entity.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE mentor_id = $1 AND plan_id = $2 AND date = $3 AND start_time = $4 AND end_time = $5
	`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, keyArgs(key)...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find slot", zap.Error(err), zap.Stringer("slot", key))
		return nil, fmt.Errorf("find slot %s: %w", key, err)
	}

	return slot, nil
}

func (r *slotRepository) ListByPlan(ctx context.Context, planID int64, status *entity.SlotStatus, limit, offset int) ([]*entity.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE plan_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY date, start_time
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, planID, statusArg(status), limit, offset)
	if err != nil {
		r.log.Error("Failed to list slots by plan",
			zap.Error(err),
			zap.Int64("plan_id", planID),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list slots for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var slots []*entity.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan slot row", zap.Error(err))
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

func (r *slotRepository) CountByPlan(ctx context.Context, planID int64, status *entity.SlotStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM slots WHERE plan_id = $1 AND ($2::text IS NULL OR status = $2)`

	var count int64
	if err := r.db.QueryRow(ctx, query, planID, statusArg(status)).Scan(&count); err != nil {
		r.log.Error("Failed to count slots by plan", zap.Error(err), zap.Int64("plan_id", planID))
		return 0, fmt.Errorf("count slots for plan %d: %w", planID, err)
	}

	return count, nil
}

func (r *slotRepository) Claim(ctx context.Context, key entity.SlotKey) error {
	query := `
		UPDATE slots
		SET status = 'booked', updated_at = NOW()
		WHERE mentor_id = $1 AND plan_id = $2 AND date = $3 AND start_time = $4 AND end_time = $5
		  AND status = 'available'
	`

	result, err := r.db.Exec(ctx, query, keyArgs(key)...)
	if err != nil {
		r.log.Error("Failed to claim slot", zap.Error(err), zap.Stringer("slot", key))
		return fmt.Errorf("claim slot %s: %w", key, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("claim slot %s: %w", key, ErrSlotNotAvailable)
	}

	return nil
}

func (r *slotRepository) Transition(ctx context.Context, key entity.SlotKey, from []entity.SlotStatus, to entity.SlotStatus) error {
	query := `
		UPDATE slots
		SET status = $6, updated_at = NOW()
		WHERE mentor_id = $1 AND plan_id = $2 AND date = $3 AND start_time = $4 AND end_time = $5
		  AND status = ANY($7)
	`

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	args := append(keyArgs(key), string(to), allowed)
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to transition slot",
			zap.Error(err),
			zap.Stringer("slot", key),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("transition slot %s to %s: %w", key, to, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("transition slot %s to %s: %w", key, to, ErrSlotNotAvailable)
	}

	return nil
}

func statusArg(status *entity.SlotStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}
