package entity

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is the durable record of one paid provider checkout session.
// StripeSessionID is unique and doubles as the webhook idempotency key.
type Invoice struct {
	ID              uuid.UUID `db:"invoice_id"`
	StripeSessionID string    `db:"stripe_session_id"`
	PaymentIntentID string    `db:"payment_intent_id"`
	MenteeID        int64     `db:"mentee_id"`
	MentorID        int64     `db:"mentor_id"`
	AmountSubtotal  Money     `db:"amount_subtotal"`
	DiscountAmount  Money     `db:"discount_amount"`
	AmountTotal     Money     `db:"amount_total"`
	Currency        string    `db:"currency"`
	PaymentStatus   string    `db:"payment_status"`
	CustomerEmail   string    `db:"customer_email"`
	ReceiptURL      string    `db:"receipt_url"`
	PaidTime        time.Time `db:"paid_time"`
	CreatedAt       time.Time `db:"created_at"`
}
