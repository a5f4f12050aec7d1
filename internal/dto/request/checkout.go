package request

type CreateCheckoutSessionRequest struct {
	MentorID      int64  `json:"mentor_id" validate:"required,min=1"`
	PlanID        int64  `json:"plan_id" validate:"required,min=1"`
	SlotStartTime string `json:"slot_start_time" validate:"required,wallclock"`
	SlotEndTime   string `json:"slot_end_time" validate:"required,wallclock"`
	Message       string `json:"message" validate:"max=400"`
	// DiscountID is optional; when absent the best eligible discount may be
	// applied automatically.
	DiscountID *int64 `json:"discount_id,omitempty" validate:"omitempty,min=1"`
}
