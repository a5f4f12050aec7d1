package response

import (
	"time"

	"mentor-booking/internal/data/entity"
)

type BestDiscountResponse struct {
	PlanID           int64        `json:"plan_id"`
	DiscountID       *int64       `json:"discount_id"`
	DiscountName     *string      `json:"discount_name"`
	EstimatedSavings entity.Money `json:"estimated_savings"`
}

type DiscountResponse struct {
	ID               int64               `json:"discount_id"`
	Name             string              `json:"discount_name"`
	Type             entity.DiscountType `json:"discount_type"`
	Value            int64               `json:"discount_value"`
	EndDate          time.Time           `json:"end_date"`
	EstimatedSavings entity.Money        `json:"estimated_savings"`
	FinalAmount      entity.Money        `json:"final_amount"`
	IsBest           bool                `json:"is_best"`
}

type PlanDiscountsResponse struct {
	PlanID     int64              `json:"plan_id"`
	PlanCharge entity.Money       `json:"plan_charge"`
	Discounts  []DiscountResponse `json:"discounts"`
}
