package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type DiscountRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Discount, error)
	// FindUsable returns discounts that are active, inside their window at
	// now and not exhausted, ordered by discount_id.
	FindUsable(ctx context.Context, now time.Time) ([]*entity.Discount, error)
	// IncrementUsage bumps used_count by one unless that would pass
	// usage_limit, in which case it returns ErrDiscountLimitReached.
	IncrementUsage(ctx context.Context, id int64) error
}

type discountRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewDiscountRepository(db database.Querier, log *zap.Logger) DiscountRepository {
	return &discountRepository{
		db:  db,
		log: log.With(zap.String("repository", "discount")),
	}
}

const discountColumns = `discount_id, discount_name, discount_type, discount_value, start_date, end_date, status, usage_limit, used_count`

func scanDiscount(row pgx.Row) (*entity.Discount, error) {
	var d entity.Discount
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Type,
		&d.Value,
		&d.StartDate,
		&d.EndDate,
		&d.Status,
		&d.UsageLimit,
		&d.UsedCount,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *discountRepository) FindByID(ctx context.Context, id int64) (*entity.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE discount_id = $1`

	d, err := scanDiscount(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find discount by ID", zap.Error(err), zap.Int64("discount_id", id))
		return nil, fmt.Errorf("find discount by ID %d: %w", id, err)
	}

	return d, nil
}

func (r *discountRepository) FindUsable(ctx context.Context, now time.Time) ([]*entity.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE status = 'active'
		  AND start_date <= $1 AND end_date >= $1
		  AND used_count < usage_limit
		ORDER BY discount_id
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to query usable discounts", zap.Error(err))
		return nil, fmt.Errorf("query usable discounts: %w", err)
	}
	defer rows.Close()

	var discounts []*entity.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			r.log.Error("Failed to scan discount row", zap.Error(err))
			return nil, fmt.Errorf("scan discount row: %w", err)
		}
		discounts = append(discounts, d)
	}

	return discounts, rows.Err()
}

func (r *discountRepository) IncrementUsage(ctx context.Context, id int64) error {
	query := `
		UPDATE discounts
		SET used_count = used_count + 1
		WHERE discount_id = $1 AND used_count < usage_limit
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to increment discount usage", zap.Error(err), zap.Int64("discount_id", id))
		return fmt.Errorf("increment discount %d usage: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("increment discount %d usage: %w", id, ErrDiscountLimitReached)
	}

	return nil
}
