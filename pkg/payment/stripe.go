package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mentor-booking/pkg/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Stripe implements Gateway on top of a per-instance stripe client, so the
// process-wide stripe.Key is never touched.
type Stripe struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	log           *zap.Logger
}

// NewStripe builds the gateway. backends may be nil to use Stripe's
// production endpoints.
func NewStripe(cfg utils.StripeConfig, backends *stripe.Backends, log *zap.Logger) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	return &Stripe{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		log:           log.With(zap.String("gateway", "stripe")),
	}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(withSessionPlaceholder(s.successURL)),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.Item.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Item.Name),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if req.Item.Description != "" {
		params.LineItems[0].PriceData.ProductData.Description = stripe.String(req.Item.Description)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("Failed to create checkout session", zap.Error(err))
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:        sess.ID,
		URL:       sess.URL,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0).UTC(),
	}, nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	out := &Event{
		ID:      event.ID,
		Type:    EventType(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}

	if !strings.HasPrefix(string(event.Type), "checkout.session.") {
		return out, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event %s has no data object", ErrMalformedEvent, event.ID)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", ErrMalformedEvent, err)
	}
	out.Session = toSession(&sess)

	return out, nil
}

func (s *Stripe) ReceiptURL(ctx context.Context, paymentIntentID string) (string, error) {
	if paymentIntentID == "" {
		return "", nil
	}

	params := &stripe.PaymentIntentParams{}
	params.AddExpand("latest_charge")
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return "", fmt.Errorf("get payment intent %s: %w", paymentIntentID, err)
	}
	if pi.LatestCharge == nil {
		return "", nil
	}

	return pi.LatestCharge.ReceiptURL, nil
}

func toSession(sess *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:             sess.ID,
		PaymentStatus:  string(sess.PaymentStatus),
		Currency:       string(sess.Currency),
		CustomerEmail:  sess.CustomerEmail,
		AmountSubtotal: sess.AmountSubtotal,
		AmountTotal:    sess.AmountTotal,
		Metadata:       sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if out.CustomerEmail == "" && sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// withSessionPlaceholder lets the success page look the session up.
func withSessionPlaceholder(url string) string {
	if url == "" || strings.Contains(url, "{CHECKOUT_SESSION_ID}") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "session_id={CHECKOUT_SESSION_ID}"
}
