package wire

import (
	"net/http"

	"mentor-booking/internal/adaptor"
	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// POST /pay/webhook - provider callback, authenticated by signature
	r.Post("/pay/webhook", paymentHandler.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(middleware.RequireRole(log, entity.RoleMentee))

		r.Post("/pay/checkout-session", paymentHandler.CreateCheckoutSession)
		r.Get("/pay/checkout-session/{sessionId}", paymentHandler.GetCheckoutStatus)
	})
}
