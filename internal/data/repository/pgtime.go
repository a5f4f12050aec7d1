package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// toPgTime keeps only the wall-clock part of t for a TIME column.
func toPgTime(t time.Time) pgtype.Time {
	us := int64(t.Hour())*int64(time.Hour/time.Microsecond) +
		int64(t.Minute())*int64(time.Minute/time.Microsecond) +
		int64(t.Second())*int64(time.Second/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}
}

// fromPgTime places a TIME value on date.
func fromPgTime(date time.Time, t pgtype.Time) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(t.Microseconds) * time.Microsecond)
}

// toPgDate normalises t to its calendar day.
func toPgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}
