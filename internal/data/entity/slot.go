package entity

import (
	"errors"
	"fmt"
	"time"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// SlotKey is the composite identity of a slot. Date is midnight UTC of the
// calendar day; Start and End are wall-clock times on that day, also UTC.
type SlotKey struct {
	MentorID int64
	PlanID   int64
	Date     time.Time
	Start    time.Time
	End      time.Time
}

var ErrInvalidSlotWindow = errors.New("invalid slot window")

// NewSlotKey anchors start/end on start's calendar day. A window that
// reaches or crosses midnight, or has no length, is rejected.
func NewSlotKey(mentorID, planID int64, start, end time.Time) (SlotKey, error) {
	start = start.UTC()
	end = end.UTC()
	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	if !end.After(start) {
		return SlotKey{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidSlotWindow,
			end.Format("15:04"), start.Format("15:04"))
	}
	if !sameDay(start, end) {
		return SlotKey{}, fmt.Errorf("%w: window crosses midnight", ErrInvalidSlotWindow)
	}

	return SlotKey{MentorID: mentorID, PlanID: planID, Date: date, Start: start, End: end}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (k SlotKey) Duration() time.Duration {
	return k.End.Sub(k.Start)
}

func (k SlotKey) String() string {
	return fmt.Sprintf("mentor=%d plan=%d %s %s-%s", k.MentorID, k.PlanID,
		k.Date.Format("2006-01-02"), k.Start.Format("15:04"), k.End.Format("15:04"))
}

type Slot struct {
	SlotKey
	Status    SlotStatus `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}
