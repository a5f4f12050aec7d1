package adaptor

import (
	"mentor-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Slot     *SlotHandler
	Discount *DiscountHandler
	Payment  *PaymentHandler
	Meeting  *MeetingHandler
}

func NewHandler(service *usecase.Service, pageSize int, log *zap.Logger) *Handler {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Handler{
		Slot:     NewSlotHandler(service.Slot, pageSize, log),
		Discount: NewDiscountHandler(service.Discount, log),
		Payment:  NewPaymentHandler(service.Checkout, service.Webhook, log),
		Meeting:  NewMeetingHandler(service.Meeting, pageSize, log),
	}
}
