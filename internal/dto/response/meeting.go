package response

import (
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/utils"
)

type MeetingResponse struct {
	ID        string               `json:"meeting_id"`
	InvoiceID string               `json:"invoice_id"`
	MenteeID  int64                `json:"mentee_id"`
	MentorID  int64                `json:"mentor_id"`
	PlanID    int64                `json:"plan_id"`
	Date      string               `json:"date"`
	StartTime string               `json:"start_time"`
	EndTime   string               `json:"end_time"`
	Status    entity.MeetingStatus `json:"status"`
	Location  *string              `json:"location"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func MeetingToResponse(m *entity.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:        m.ID.String(),
		InvoiceID: m.InvoiceID.String(),
		MenteeID:  m.MenteeID,
		MentorID:  m.Slot.MentorID,
		PlanID:    m.Slot.PlanID,
		Date:      m.Slot.Date.Format(utils.DateLayout),
		StartTime: m.Slot.Start.Format(utils.ClockLayout),
		EndTime:   m.Slot.End.Format(utils.ClockLayout),
		Status:    m.Status,
		Location:  m.Location,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
