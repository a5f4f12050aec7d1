package entity

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingStatusPending   MeetingStatus = "pending"
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusCancelled
}

// Meeting is the confirmed session for exactly one invoice. Its slot
// identity matches the slot that was claimed for it.
type Meeting struct {
	ID        uuid.UUID     `db:"meeting_id"`
	InvoiceID uuid.UUID     `db:"invoice_id"`
	MenteeID  int64         `db:"mentee_id"`
	Slot      SlotKey       `db:"-"`
	Status    MeetingStatus `db:"status"`
	Location  *string       `db:"location"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
