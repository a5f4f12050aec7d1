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

// StripeSessionConstraint is the unique constraint that makes a provider
// session id an idempotency key.
const StripeSessionConstraint = "invoices_stripe_session_id_key"

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	FindByStripeSessionID(ctx context.Context, sessionID string) (*entity.Invoice, error)
}

type invoiceRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewInvoiceRepository(db database.Querier, log *zap.Logger) InvoiceRepository {
	return &invoiceRepository{
		db:  db,
		log: log.With(zap.String("repository", "invoice")),
	}
}

const invoiceColumns = `invoice_id, stripe_session_id, payment_intent_id, mentee_id, mentor_id,
	amount_subtotal, discount_amount, amount_total, currency, payment_status,
	customer_email, receipt_url, paid_time, created_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv                       entity.Invoice
		subtotal, discount, total int64
	)
	err := row.Scan(
		&inv.ID,
		&inv.StripeSessionID,
		&inv.PaymentIntentID,
		&inv.MenteeID,
		&inv.MentorID,
		&subtotal,
		&discount,
		&total,
		&inv.Currency,
		&inv.PaymentStatus,
		&inv.CustomerEmail,
		&inv.ReceiptURL,
		&inv.PaidTime,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.AmountSubtotal = entity.Money(subtotal)
	inv.DiscountAmount = entity.Money(discount)
	inv.AmountTotal = entity.Money(total)
	return &inv, nil
}

// Create inserts the invoice. A second invoice for the same provider
// session is reported as ErrDuplicate.
func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			invoice_id, stripe_session_id, payment_intent_id, mentee_id, mentor_id,
			amount_subtotal, discount_amount, amount_total, currency, payment_status,
			customer_email, receipt_url, paid_time, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(ctx, query,
		invoice.ID,
		invoice.StripeSessionID,
		invoice.PaymentIntentID,
		invoice.MenteeID,
		invoice.MentorID,
		invoice.AmountSubtotal.MinorUnits(),
		invoice.DiscountAmount.MinorUnits(),
		invoice.AmountTotal.MinorUnits(),
		invoice.Currency,
		invoice.PaymentStatus,
		invoice.CustomerEmail,
		invoice.ReceiptURL,
		invoice.PaidTime,
		invoice.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, StripeSessionConstraint) {
			return fmt.Errorf("create invoice for session %s: %w", invoice.StripeSessionID, ErrDuplicate)
		}
		r.log.Error("Failed to create invoice",
			zap.Error(err),
			zap.String("stripe_session_id", invoice.StripeSessionID),
		)
		return fmt.Errorf("create invoice for session %s: %w", invoice.StripeSessionID, err)
	}

	return nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find invoice by ID", zap.Error(err), zap.Stringer("invoice_id", id))
		return nil, fmt.Errorf("find invoice by ID %s: %w", id, err)
	}

	return inv, nil
}

func (r *invoiceRepository) FindByStripeSessionID(ctx context.Context, sessionID string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE stripe_session_id = $1`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find invoice by session", zap.Error(err), zap.String("stripe_session_id", sessionID))
		return nil, fmt.Errorf("find invoice by session %s: %w", sessionID, err)
	}

	return inv, nil
}
