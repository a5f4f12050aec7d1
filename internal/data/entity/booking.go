package entity

import (
	"time"

	"github.com/google/uuid"
)

// Booking registers a mentee on a plan through one invoice.
type Booking struct {
	ID        uuid.UUID   `db:"booking_id"`
	MenteeID  int64       `db:"mentee_id"`
	PlanID    int64       `db:"plan_id"`
	InvoiceID uuid.UUID   `db:"invoice_id"`
	Discount  DiscountRef `db:"discount_id"`
	Message   string      `db:"message"`
	CreatedAt time.Time   `db:"created_at"`
}
