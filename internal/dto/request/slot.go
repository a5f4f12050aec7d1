package request

import (
	"fmt"
	"time"

	"mentor-booking/pkg/utils"
)

type ListSlotsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=available booked cancelled"`
}

// SlotWindowRequest addresses one slot of a plan by its calendar day and
// wall-clock window.
type SlotWindowRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// Window resolves the request to start/end instants on Date.
func (r SlotWindowRequest) Window() (time.Time, time.Time, error) {
	day, err := utils.ParseDate(r.Date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date: %w", err)
	}
	start, err := utils.ParseClock(day, r.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := utils.ParseClock(day, r.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_time: %w", err)
	}
	return start, end, nil
}

type CreateSlotRequest struct {
	SlotWindowRequest
	Status string `json:"status" validate:"omitempty,oneof=available cancelled"`
}
