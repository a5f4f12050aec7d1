package repository

import (
	"context"
	"errors"
	"fmt"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.Booking, error)

	// UsedDiscountIDs lists the discounts the mentee already redeemed.
	UsedDiscountIDs(ctx context.Context, menteeID int64) (map[int64]struct{}, error)
	HasUsedDiscount(ctx context.Context, menteeID, discountID int64) (bool, error)
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (booking_id, mentee_id, plan_id, invoice_id, discount_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.MenteeID,
		booking.PlanID,
		booking.InvoiceID,
		booking.Discount.Nullable(),
		booking.Message,
		booking.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create booking for invoice %s: %w", booking.InvoiceID, ErrDuplicate)
		}
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.Stringer("invoice_id", booking.InvoiceID),
			zap.Int64("mentee_id", booking.MenteeID),
		)
		return fmt.Errorf("create booking for invoice %s: %w", booking.InvoiceID, err)
	}

	return nil
}

func (r *bookingRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.Booking, error) {
	query := `
		SELECT booking_id, mentee_id, plan_id, invoice_id, discount_id, message, created_at
		FROM bookings
		WHERE invoice_id = $1
	`

	var (
		booking    entity.Booking
		discountID *int64
	)
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(
		&booking.ID,
		&booking.MenteeID,
		&booking.PlanID,
		&booking.InvoiceID,
		&discountID,
		&booking.Message,
		&booking.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by invoice", zap.Error(err), zap.Stringer("invoice_id", invoiceID))
		return nil, fmt.Errorf("find booking by invoice %s: %w", invoiceID, err)
	}
	booking.Discount = entity.DiscountRefFromNullable(discountID)

	return &booking, nil
}

func (r *bookingRepository) UsedDiscountIDs(ctx context.Context, menteeID int64) (map[int64]struct{}, error) {
	query := `
		SELECT DISTINCT discount_id
		FROM bookings
		WHERE mentee_id = $1 AND discount_id IS NOT NULL
	`

	rows, err := r.db.Query(ctx, query, menteeID)
	if err != nil {
		r.log.Error("Failed to query used discounts", zap.Error(err), zap.Int64("mentee_id", menteeID))
		return nil, fmt.Errorf("query used discounts for mentee %d: %w", menteeID, err)
	}
	defer rows.Close()

	used := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan used discount: %w", err)
		}
		used[id] = struct{}{}
	}

	return used, rows.Err()
}

func (r *bookingRepository) HasUsedDiscount(ctx context.Context, menteeID, discountID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE mentee_id = $1 AND discount_id = $2)`

	var used bool
	if err := r.db.QueryRow(ctx, query, menteeID, discountID).Scan(&used); err != nil {
		r.log.Error("Failed to check discount usage",
			zap.Error(err),
			zap.Int64("mentee_id", menteeID),
			zap.Int64("discount_id", discountID),
		)
		return false, fmt.Errorf("check discount %d usage for mentee %d: %w", discountID, menteeID, err)
	}

	return used, nil
}
