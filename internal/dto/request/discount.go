package request

type BestDiscountRequest struct {
	MenteeID int64 `json:"mentee_id" validate:"required,min=1"`
	PlanID   int64 `json:"plan_id" validate:"required,min=1"`
}

type PlanDiscountsRequest struct {
	PlanID int64 `json:"plan_id" validate:"required,min=1"`
	// MenteeID narrows the list to what that mentee may still redeem.
	MenteeID *int64 `json:"mentee_id,omitempty" validate:"omitempty,min=1"`
}
