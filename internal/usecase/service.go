package usecase

import (
	"mentor-booking/internal/data/repository"
	"mentor-booking/pkg/metrics"
	"mentor-booking/pkg/payment"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Slot     SlotService
	Discount DiscountService
	Checkout CheckoutService
	Webhook  WebhookService
	Meeting  MeetingService
}

func NewService(repo *repository.Repository, txr repository.Transactor, gateway payment.Gateway, notifier Notifier, m *metrics.Metrics, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Slot:     NewSlotService(repo, txr, log),
		Discount: NewDiscountService(repo, log),
		Checkout: NewCheckoutService(repo, gateway, m, config, log),
		Webhook:  NewWebhookService(repo, txr, gateway, notifier, m, log),
		Meeting:  NewMeetingService(repo, log),
	}
}
