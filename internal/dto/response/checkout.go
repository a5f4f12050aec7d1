package response

import (
	"time"

	"mentor-booking/internal/data/entity"
)

type CheckoutSessionResponse struct {
	SessionID      string       `json:"sessionId"`
	SessionURL     string       `json:"sessionUrl"`
	AmountSubtotal entity.Money `json:"amount_subtotal"`
	DiscountAmount entity.Money `json:"discount_amount"`
	AmountTotal    entity.Money `json:"amount_total"`
	Currency       string       `json:"currency"`
	DiscountID     *int64       `json:"discount_id,omitempty"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

// CheckoutStatus is "pending" until the payment webhook has committed the
// booking, then "confirmed".
type CheckoutStatus string

const (
	CheckoutStatusPending   CheckoutStatus = "pending"
	CheckoutStatusConfirmed CheckoutStatus = "confirmed"
)

type CheckoutStatusResponse struct {
	SessionID string           `json:"session_id"`
	Status    CheckoutStatus   `json:"status"`
	Invoice   *InvoiceResponse `json:"invoice,omitempty"`
	Meeting   *MeetingResponse `json:"meeting,omitempty"`
}

type InvoiceResponse struct {
	ID             string       `json:"invoice_id"`
	AmountSubtotal entity.Money `json:"amount_subtotal"`
	DiscountAmount entity.Money `json:"discount_amount"`
	AmountTotal    entity.Money `json:"amount_total"`
	Currency       string       `json:"currency"`
	PaymentStatus  string       `json:"payment_status"`
	ReceiptURL     string       `json:"receipt_url,omitempty"`
	PaidTime       time.Time    `json:"paid_time"`
}

func InvoiceToResponse(inv *entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             inv.ID.String(),
		AmountSubtotal: inv.AmountSubtotal,
		DiscountAmount: inv.DiscountAmount,
		AmountTotal:    inv.AmountTotal,
		Currency:       inv.Currency,
		PaymentStatus:  inv.PaymentStatus,
		ReceiptURL:     inv.ReceiptURL,
		PaidTime:       inv.PaidTime,
	}
}

type WebhookResponse struct {
	Outcome   string `json:"outcome"`
	SessionID string `json:"session_id,omitempty"`
}
