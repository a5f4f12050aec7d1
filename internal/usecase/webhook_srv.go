package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/pkg/metrics"
	"mentor-booking/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WebhookOutcome string

const (
	WebhookCommitted       WebhookOutcome = "committed"
	WebhookReplayed        WebhookOutcome = "replayed"
	WebhookIgnored         WebhookOutcome = "ignored"
	WebhookAwaitingPayment WebhookOutcome = "awaiting_payment"
)

// WebhookResult is how an acknowledged event was handled.
type WebhookResult struct {
	Outcome   WebhookOutcome
	SessionID string
}

type WebhookService interface {
	// HandleEvent verifies and reconciles one provider delivery. It is safe
	// to call any number of times with the same payload.
	HandleEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type webhookService struct {
	repo     *repository.Repository
	txr      repository.Transactor
	gateway  payment.Gateway
	notifier Notifier
	metrics  *metrics.Metrics
	clock    func() time.Time
	log      *zap.Logger
}

func NewWebhookService(repo *repository.Repository, txr repository.Transactor, gateway payment.Gateway, notifier Notifier, m *metrics.Metrics, log *zap.Logger) WebhookService {
	return &webhookService{
		repo:     repo,
		txr:      txr,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		clock:    time.Now,
		log:      log.With(zap.String("service", "webhook")),
	}
}

// errReplayed aborts a commit whose invoice already exists.
var errReplayed = errors.New("session already reconciled")

func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			s.reject("invalid_signature", "", err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		s.reject("integrity", "", err)
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	switch evt.Type {
	case payment.EventCheckoutCompleted, payment.EventAsyncPaymentSucceeded:
	default:
		s.log.Debug("Webhook event ignored", zap.String("event_id", evt.ID), zap.String("type", string(evt.Type)))
		s.metrics.RecordWebhook(string(WebhookIgnored))
		return &WebhookResult{Outcome: WebhookIgnored}, nil
	}

	sess := evt.Session
	if sess == nil || sess.ID == "" {
		err := fmt.Errorf("%w: event %s carries no checkout session", ErrIntegrity, evt.ID)
		s.reject("integrity", "", err)
		return nil, err
	}

	if !sess.Paid() {
		s.log.Info("Checkout completed without payment, waiting for async result",
			zap.String("session_id", sess.ID),
			zap.String("payment_status", sess.PaymentStatus),
		)
		s.metrics.RecordWebhook(string(WebhookAwaitingPayment))
		return &WebhookResult{Outcome: WebhookAwaitingPayment, SessionID: sess.ID}, nil
	}

	outcome, err := s.reconcile(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordWebhook(string(outcome))
	return &WebhookResult{Outcome: outcome, SessionID: sess.ID}, nil
}

func (s *webhookService) reconcile(ctx context.Context, sess *payment.Session) (WebhookOutcome, error) {
	existing, err := s.repo.Invoice.FindByStripeSessionID(ctx, sess.ID)
	if err != nil {
		s.reject("transient", sess.ID, err)
		return "", fmt.Errorf("find invoice: %w", err)
	}
	if existing != nil {
		s.log.Info("Webhook replay acknowledged", zap.String("session_id", sess.ID), zap.Stringer("invoice_id", existing.ID))
		return WebhookReplayed, nil
	}

	meta, plan, key, err := s.verify(ctx, sess)
	if err != nil {
		return "", err
	}

	receiptURL := ""
	if sess.PaymentIntentID != "" {
		receiptURL, err = s.gateway.ReceiptURL(ctx, sess.PaymentIntentID)
		if err != nil {
			s.log.Warn("Failed to fetch receipt url", zap.Error(err), zap.String("session_id", sess.ID))
			receiptURL = ""
		}
	}

	now := s.clock().UTC()
	invoice := &entity.Invoice{
		ID:              uuid.New(),
		StripeSessionID: sess.ID,
		PaymentIntentID: sess.PaymentIntentID,
		MenteeID:        meta.MenteeID,
		MentorID:        meta.MentorID,
		AmountSubtotal:  meta.PlanCharge,
		DiscountAmount:  meta.DiscountAmount,
		AmountTotal:     entity.Money(sess.AmountTotal),
		Currency:        sess.Currency,
		PaymentStatus:   sess.PaymentStatus,
		CustomerEmail:   sess.CustomerEmail,
		ReceiptURL:      receiptURL,
		PaidTime:        now,
		CreatedAt:       now,
	}
	booking := &entity.Booking{
		ID:        uuid.New(),
		MenteeID:  meta.MenteeID,
		PlanID:    meta.PlanID,
		InvoiceID: invoice.ID,
		Discount:  meta.Discount,
		Message:   meta.Message,
		CreatedAt: now,
	}
	meeting := &entity.Meeting{
		ID:        uuid.New(),
		InvoiceID: invoice.ID,
		MenteeID:  meta.MenteeID,
		Slot:      key,
		Status:    entity.MeetingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.txr.WithinTx(ctx, func(repo *repository.Repository) error {
		if err := repo.Slot.Claim(ctx, key); err != nil {
			if errors.Is(err, repository.ErrSlotNotAvailable) {
				return fmt.Errorf("%w: %s", ErrSlotConflict, key)
			}
			return err
		}
		if err := repo.Invoice.Create(ctx, invoice); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errReplayed
			}
			return err
		}
		if err := repo.Booking.Create(ctx, booking); err != nil {
			return err
		}
		if err := repo.Meeting.Create(ctx, meeting); err != nil {
			return err
		}
		if id, ok := meta.Discount.Get(); ok {
			if err := repo.Discount.IncrementUsage(ctx, id); err != nil {
				if errors.Is(err, repository.ErrDiscountLimitReached) {
					return fmt.Errorf("%w: discount %d", ErrDiscountExhausted, id)
				}
				return err
			}
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errReplayed):
		s.log.Info("Concurrent webhook delivery already committed", zap.String("session_id", sess.ID))
		return WebhookReplayed, nil
	case errors.Is(err, ErrSlotConflict):
		// a duplicate delivery that lost the claim to its twin is a replay
		again, findErr := s.repo.Invoice.FindByStripeSessionID(ctx, sess.ID)
		if findErr == nil && again != nil {
			s.log.Info("Concurrent webhook delivery already committed", zap.String("session_id", sess.ID))
			return WebhookReplayed, nil
		}
		s.metrics.RecordSlotClaim(false)
		s.reject("slot_conflict", sess.ID, err,
			zap.Stringer("slot", key),
			zap.Int64("mentee_id", meta.MenteeID),
			zap.String("payment_intent_id", sess.PaymentIntentID),
			zap.Int64("amount_total", sess.AmountTotal),
		)
		return "", err
	case errors.Is(err, ErrDiscountExhausted):
		s.reject("discount_exhausted", sess.ID, err,
			zap.Int64p("discount_id", meta.Discount.Nullable()),
			zap.String("payment_intent_id", sess.PaymentIntentID),
		)
		return "", err
	default:
		s.reject("transient", sess.ID, err)
		return "", fmt.Errorf("commit booking: %w", err)
	}

	s.metrics.RecordSlotClaim(true)
	if meta.Discount.IsSet() {
		s.metrics.RecordDiscountApplied()
	}

	s.log.Info("Booking committed",
		zap.String("session_id", sess.ID),
		zap.Stringer("invoice_id", invoice.ID),
		zap.Stringer("meeting_id", meeting.ID),
		zap.Stringer("slot", key),
	)

	s.notifier.BookingConfirmed(ctx, BookingCommitted{
		Plan:    plan,
		Invoice: invoice,
		Booking: booking,
		Meeting: meeting,
	})

	return WebhookCommitted, nil
}

// verify decodes the session metadata and checks it against the plan and
// the amount the provider actually charged.
func (s *webhookService) verify(ctx context.Context, sess *payment.Session) (BookingMetadata, *entity.Plan, entity.SlotKey, error) {
	fail := func(err error) (BookingMetadata, *entity.Plan, entity.SlotKey, error) {
		s.reject("integrity", sess.ID, err)
		return BookingMetadata{}, nil, entity.SlotKey{}, err
	}

	meta, err := DecodeBookingMetadata(sess.Metadata)
	if err != nil {
		return fail(err)
	}
	key, err := meta.SlotKey()
	if err != nil {
		return fail(err)
	}

	if meta.Total() != entity.Money(sess.AmountTotal) {
		return fail(fmt.Errorf("%w: metadata total %d, charged %d", ErrIntegrity, meta.Total().MinorUnits(), sess.AmountTotal))
	}

	plan, err := s.repo.Plan.FindByID(ctx, meta.PlanID)
	if err != nil {
		s.reject("transient", sess.ID, err)
		return BookingMetadata{}, nil, entity.SlotKey{}, fmt.Errorf("find plan: %w", err)
	}
	if plan == nil || plan.MentorID != meta.MentorID {
		return fail(fmt.Errorf("%w: plan %d does not belong to mentor %d", ErrIntegrity, meta.PlanID, meta.MentorID))
	}

	return meta, plan, key, nil
}

// reject logs a refused delivery with a reason operators can act on.
func (s *webhookService) reject(reason, sessionID string, err error, fields ...zap.Field) {
	s.metrics.RecordWebhook(reason)
	fields = append(fields,
		zap.String("reason", reason),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	s.log.Error("Webhook rejected", fields...)
}
