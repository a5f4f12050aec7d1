package payment

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidSignature means the webhook payload did not verify against
	// the configured signing secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent means the payload verified but could not be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout.session.completed"
	EventAsyncPaymentSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    EventType = "checkout.session.async_payment_failed"
	EventCheckoutExpired       EventType = "checkout.session.expired"
)

type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
}

// CheckoutRequest describes one hosted checkout. Metadata is echoed back
// verbatim on the webhook.
type CheckoutRequest struct {
	Currency          string
	Item              LineItem
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
	IdempotencyKey    string
}

type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// Session is the provider's view of a checkout session as delivered by a
// webhook event.
type Session struct {
	ID              string
	PaymentIntentID string
	PaymentStatus   string
	Currency        string
	CustomerEmail   string
	AmountSubtotal  int64
	AmountTotal     int64
	Metadata        map[string]string
}

func (s *Session) Paid() bool {
	return s.PaymentStatus == "paid"
}

type Event struct {
	ID      string
	Type    EventType
	Created time.Time
	// Session is set for checkout.session.* events.
	Session *Session
}

// Gateway is the slice of the payment provider the booking flow uses.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies signature over payload and decodes the event.
	// Nothing in the payload may be trusted unless this returns nil error.
	ParseWebhook(payload []byte, signature string) (*Event, error)
	// ReceiptURL returns the receipt link of the payment intent's latest
	// charge, or "" when there is none yet.
	ReceiptURL(ctx context.Context, paymentIntentID string) (string, error)
}
