package repository

import (
	"context"
	"errors"

	"mentor-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrSlotNotAvailable is returned when a conditional slot transition
	// matched no row: the slot is missing or not in an allowed status.
	ErrSlotNotAvailable = errors.New("slot not available")
	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrDiscountLimitReached is returned when a guarded usage increment
	// would exceed the discount's usage limit.
	ErrDiscountLimitReached = errors.New("discount usage limit reached")
	// ErrStatusTransition is returned when a conditional meeting update
	// matched no row in an allowed status.
	ErrStatusTransition = errors.New("status transition not allowed")
)

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Plan     PlanRepository
	Slot     SlotRepository
	Discount DiscountRepository
	Invoice  InvoiceRepository
	Booking  BookingRepository
	Meeting  MeetingRepository
}

// NewRepository binds every repository to db, which may be the pool or a
// transaction.
func NewRepository(db database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, log),
		Session:  NewSessionRepository(db, log),
		Plan:     NewPlanRepository(db, log),
		Slot:     NewSlotRepository(db, log),
		Discount: NewDiscountRepository(db, log),
		Invoice:  NewInvoiceRepository(db, log),
		Booking:  NewBookingRepository(db, log),
		Meeting:  NewMeetingRepository(db, log),
	}
}

// Transactor runs fn against repositories bound to a single transaction.
// A non-nil error from fn rolls everything fn did back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo *Repository) error) error
}

type transactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTransactor(db database.PgxIface, log *zap.Logger) Transactor {
	return &transactor{db: db, log: log}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(repo *Repository) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewRepository(tx, t.log))
	})
}
