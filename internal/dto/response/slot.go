package response

import (
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/utils"
)

type SlotResponse struct {
	MentorID  int64             `json:"mentor_id"`
	PlanID    int64             `json:"plan_id"`
	Date      string            `json:"date"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Status    entity.SlotStatus `json:"status"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func SlotToResponse(slot *entity.Slot) SlotResponse {
	return SlotResponse{
		MentorID:  slot.MentorID,
		PlanID:    slot.PlanID,
		Date:      slot.Date.Format(utils.DateLayout),
		StartTime: slot.Start.Format(utils.ClockLayout),
		EndTime:   slot.End.Format(utils.ClockLayout),
		Status:    slot.Status,
		UpdatedAt: slot.UpdatedAt,
	}
}
