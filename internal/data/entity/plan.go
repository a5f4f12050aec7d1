package entity

import (
	"time"
)

type PlanType string

const (
	PlanTypeSession    PlanType = "session"
	PlanTypeMentorship PlanType = "mentorship"
)

// Plan is a mentor's priced offering. DurationMinutes comes from whichever
// of plan_sessions / plan_mentorships exists for the plan.
type Plan struct {
	ID              int64     `db:"plan_id"`
	MentorID        int64     `db:"mentor_id"`
	Type            PlanType  `db:"plan_type"`
	Title           string    `db:"plan_title"`
	Description     string    `db:"plan_description"`
	Charge          Money     `db:"plan_charge"`
	DurationMinutes int       `db:"duration"`
	CreatedAt       time.Time `db:"created_at"`
}

func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}
