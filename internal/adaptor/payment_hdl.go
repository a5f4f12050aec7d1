package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxWebhookBytes caps webhook bodies; provider events are far smaller.
const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	checkout usecase.CheckoutService
	webhook  usecase.WebhookService
	log      *zap.Logger
}

func NewPaymentHandler(checkout usecase.CheckoutService, webhook usecase.WebhookService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkout: checkout,
		webhook:  webhook,
		log:      log.With(zap.String("handler", "payment")),
	}
}

// CreateCheckoutSession handles POST /pay/checkout-session (mentee)
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateCheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	session, err := h.checkout.CreateCheckoutSession(r.Context(), actor.UserID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create checkout session")
		return
	}

	utils.ResponseSuccess(w, "success", session)
}

// GetCheckoutStatus handles GET /pay/checkout-session/{sessionId} (mentee)
func (h *PaymentHandler) GetCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	status, err := h.checkout.GetCheckoutStatus(r.Context(), actor.UserID, chi.URLParam(r, "sessionId"))
	if err != nil {
		writeServiceError(w, h.log, err, "get checkout status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// Webhook handles POST /pay/webhook (payment provider)
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		utils.ResponseBadRequest(w, "Unreadable request body", nil)
		return
	}

	result, err := h.webhook.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeServiceError(w, h.log, err, "handle webhook")
		return
	}

	utils.ResponseSuccess(w, "Acknowledged", response.WebhookResponse{
		Outcome:   string(result.Outcome),
		SessionID: result.SessionID,
	})
}
