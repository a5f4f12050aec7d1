package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/pkg/metrics"
	"mentor-booking/pkg/payment"
	"mentor-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// checkoutNamespace seeds deterministic idempotency keys for provider calls.
var checkoutNamespace = uuid.MustParse("6f1c8f2e-4d0b-4a57-9d3e-2b7c5e8a1f60")

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, menteeID int64, req *request.CreateCheckoutSessionRequest) (*response.CheckoutSessionResponse, error)
	GetCheckoutStatus(ctx context.Context, menteeID int64, sessionID string) (*response.CheckoutStatusResponse, error)
}

type checkoutService struct {
	repo      *repository.Repository
	gateway   payment.Gateway
	metrics   *metrics.Metrics
	currency  string
	autoApply bool
	clock     func() time.Time
	log       *zap.Logger
}

func NewCheckoutService(repo *repository.Repository, gateway payment.Gateway, m *metrics.Metrics, config *utils.Config, log *zap.Logger) CheckoutService {
	currency := strings.ToLower(config.Stripe.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &checkoutService{
		repo:      repo,
		gateway:   gateway,
		metrics:   m,
		currency:  currency,
		autoApply: config.Booking.AutoApplyDiscount,
		clock:     time.Now,
		log:       log.With(zap.String("service", "checkout")),
	}
}

// CreateCheckoutSession validates the booking request against current state
// and opens a hosted payment session. The slot is only read here; it is
// claimed when the payment webhook commits.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, menteeID int64, req *request.CreateCheckoutSessionRequest) (*response.CheckoutSessionResponse, error) {
	if err := validate(req); err != nil {
		s.metrics.RecordCheckout("rejected")
		return nil, err
	}

	resp, err := s.createSession(ctx, menteeID, req)
	if err != nil {
		s.metrics.RecordCheckout(checkoutOutcome(err))
		return nil, err
	}

	s.metrics.RecordCheckout("created")
	return resp, nil
}

func (s *checkoutService) createSession(ctx context.Context, menteeID int64, req *request.CreateCheckoutSessionRequest) (*response.CheckoutSessionResponse, error) {
	now := s.clock()

	plan, err := findPlan(ctx, s.repo, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.MentorID != req.MentorID {
		return nil, fmt.Errorf("plan %d of mentor %d: %w", req.PlanID, req.MentorID, ErrNotFound)
	}

	key, err := checkoutSlotKey(plan, req)
	if err != nil {
		return nil, err
	}
	if !key.Start.After(now) {
		return nil, fmt.Errorf("slot %s already started: %w", key, ErrSlotUnavailable)
	}

	slot, err := s.repo.Slot.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot == nil || slot.Status != entity.SlotStatusAvailable {
		return nil, fmt.Errorf("slot %s: %w", key, ErrSlotUnavailable)
	}

	var discount *entity.Discount
	switch {
	case req.DiscountID != nil:
		discount, err = checkDiscount(ctx, s.repo, *req.DiscountID, menteeID, now)
		if err != nil {
			return nil, err
		}
	case s.autoApply:
		quote, ok, err := bestDiscountFor(ctx, s.repo, plan.Charge, &menteeID, now)
		if err != nil {
			return nil, err
		}
		if ok {
			discount = quote.Discount
		}
	}

	price := priceFor(plan.Charge, discount)
	if price.Total <= 0 {
		return nil, fmt.Errorf("plan %d: %w", plan.ID, ErrZeroAmount)
	}

	meta := BookingMetadata{
		MenteeID:       menteeID,
		MentorID:       plan.MentorID,
		PlanID:         plan.ID,
		SlotStart:      key.Start,
		SlotEnd:        key.End,
		Message:        req.Message,
		Discount:       price.Applied,
		PlanCharge:     price.Subtotal,
		DiscountAmount: price.Discount,
	}
	metadata := meta.Encode()

	var email string
	mentee, err := s.repo.User.FindByID(ctx, menteeID)
	if err != nil {
		return nil, fmt.Errorf("find mentee: %w", err)
	}
	if mentee != nil {
		email = mentee.Email
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Currency: s.currency,
		Item: payment.LineItem{
			Name:        plan.Title,
			Description: lineItemDescription(plan, key),
			UnitAmount:  price.Total.MinorUnits(),
		},
		CustomerEmail:     email,
		ClientReferenceID: strconv.FormatInt(menteeID, 10),
		Metadata:          metadata,
		IdempotencyKey:    idempotencyKey(metadata, slot.UpdatedAt),
	})
	if err != nil {
		s.log.Error("Failed to create checkout session",
			zap.Error(err),
			zap.Int64("mentee_id", menteeID),
			zap.Stringer("slot", key),
		)
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.Int64("mentee_id", menteeID),
		zap.Stringer("slot", key),
		zap.Int64("amount_total", price.Total.MinorUnits()),
		zap.Int64p("discount_id", price.Applied.Nullable()),
	)

	return &response.CheckoutSessionResponse{
		SessionID:      session.ID,
		SessionURL:     session.URL,
		AmountSubtotal: price.Subtotal,
		DiscountAmount: price.Discount,
		AmountTotal:    price.Total,
		Currency:       s.currency,
		DiscountID:     price.Applied.Nullable(),
		ExpiresAt:      session.ExpiresAt,
	}, nil
}

// GetCheckoutStatus reports whether the webhook for sessionID has committed.
func (s *checkoutService) GetCheckoutStatus(ctx context.Context, menteeID int64, sessionID string) (*response.CheckoutStatusResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, newValidationError(map[string]string{"SessionID": "is required"})
	}

	resp := &response.CheckoutStatusResponse{
		SessionID: sessionID,
		Status:    response.CheckoutStatusPending,
	}

	invoice, err := s.repo.Invoice.FindByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	if invoice == nil {
		return resp, nil
	}
	if invoice.MenteeID != menteeID {
		return nil, fmt.Errorf("checkout session %s: %w", sessionID, ErrForbidden)
	}

	meeting, err := s.repo.Meeting.FindByInvoiceID(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("find meeting: %w", err)
	}

	inv := response.InvoiceToResponse(invoice)
	resp.Status = response.CheckoutStatusConfirmed
	resp.Invoice = &inv
	if meeting != nil {
		m := response.MeetingToResponse(meeting)
		resp.Meeting = &m
	}

	return resp, nil
}

func checkoutSlotKey(plan *entity.Plan, req *request.CreateCheckoutSessionRequest) (entity.SlotKey, error) {
	start, err := utils.ParseWallClock(req.SlotStartTime)
	if err != nil {
		return entity.SlotKey{}, newValidationError(map[string]string{"SlotStartTime": err.Error()})
	}
	end, err := utils.ParseWallClock(req.SlotEndTime)
	if err != nil {
		return entity.SlotKey{}, newValidationError(map[string]string{"SlotEndTime": err.Error()})
	}

	key, err := entity.NewSlotKey(plan.MentorID, plan.ID, start, end)
	if err != nil {
		return entity.SlotKey{}, newValidationError(map[string]string{"SlotEndTime": err.Error()})
	}
	return key, nil
}

func lineItemDescription(plan *entity.Plan, key entity.SlotKey) string {
	return fmt.Sprintf("%s, %s %s-%s UTC", plan.Type,
		key.Date.Format(utils.DateLayout), key.Start.Format(utils.ClockLayout), key.End.Format(utils.ClockLayout))
}

// idempotencyKey is stable for identical booking contexts, so a retried
// request reuses the provider session instead of opening a second one.
// slotVersion is the slot's updated_at: once the slot is booked and later
// released, the same request gets a fresh session rather than the completed
// one.
func idempotencyKey(metadata map[string]string, slotVersion time.Time) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(metadata[k])
		b.WriteByte('\n')
	}
	b.WriteString("slot_version=")
	b.WriteString(strconv.FormatInt(slotVersion.UTC().UnixNano(), 10))
	return uuid.NewSHA1(checkoutNamespace, []byte(b.String())).String()
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return "rejected"
	case errors.Is(err, ErrConflict):
		return "unavailable"
	default:
		return "failed"
	}
}
