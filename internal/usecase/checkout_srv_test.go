package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutService(store *memStore, gw *fakeGateway, autoApply bool) *checkoutService {
	cfg := &utils.Config{
		Stripe:  utils.StripeConfig{Currency: "USD"},
		Booking: utils.BookingConfig{AutoApplyDiscount: autoApply},
	}
	svc := NewCheckoutService(store.repo(), gw, newMetrics(), cfg, nopLog()).(*checkoutService)
	svc.clock = fixedClock
	return svc
}

func checkoutReq() *request.CreateCheckoutSessionRequest {
	return &request.CreateCheckoutSessionRequest{
		MentorID:      mentorID,
		PlanID:        planID,
		SlotStartTime: "2025-12-01T09:00:00",
		SlotEndTime:   "2025-12-01T10:00:00",
		Message:       "Resume review please",
	}
}

func TestCreateCheckoutSessionCarriesBookingContext(t *testing.T) {
	store := seededStore(t)
	gw := newFakeGateway()
	svc := newCheckoutService(store, gw, false)

	resp, err := svc.CreateCheckoutSession(context.Background(), menteeID, checkoutReq())
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.Equal(t, "https://checkout.example.com/cs_test_1", resp.SessionURL)
	assert.Equal(t, entity.Money(10000), resp.AmountTotal)
	assert.Nil(t, resp.DiscountID)
	assert.Equal(t, "usd", resp.Currency)

	sent := gw.lastRequest()
	assert.Equal(t, int64(10000), sent.Item.UnitAmount)
	assert.Equal(t, "mia@example.com", sent.CustomerEmail)
	assert.NotEmpty(t, sent.IdempotencyKey)

	meta, err := DecodeBookingMetadata(sent.Metadata)
	require.NoError(t, err)
	assert.Equal(t, menteeID, meta.MenteeID)
	assert.Equal(t, mentorID, meta.MentorID)
	assert.Equal(t, at(9, 0), meta.SlotStart)
	assert.Equal(t, "Resume review please", meta.Message)
	assert.False(t, meta.Discount.IsSet())

	status, _ := store.slotStatus(nineToTen(t))
	assert.Equal(t, entity.SlotStatusAvailable, status, "checkout must not claim the slot")
}

func TestCreateCheckoutSessionAutoAppliesBestDiscount(t *testing.T) {
	store := seededStore(t)
	store.addDiscount(percentOff(1, 20))
	store.addDiscount(amountOff(2, 3000))
	gw := newFakeGateway()
	svc := newCheckoutService(store, gw, true)

	resp, err := svc.CreateCheckoutSession(context.Background(), menteeID, checkoutReq())
	require.NoError(t, err)

	require.NotNil(t, resp.DiscountID)
	assert.Equal(t, int64(2), *resp.DiscountID)
	assert.Equal(t, entity.Money(3000), resp.DiscountAmount)
	assert.Equal(t, entity.Money(7000), resp.AmountTotal)
	assert.Equal(t, int64(7000), gw.lastRequest().Item.UnitAmount)
	assert.Equal(t, 0, store.discountUsed(2), "usage is only counted at commit")
}

func TestCreateCheckoutSessionAutoApplySkipsFreeingDiscount(t *testing.T) {
	t.Run("falls back to no discount", func(t *testing.T) {
		store := seededStore(t)
		store.addDiscount(amountOff(3, 20000))
		gw := newFakeGateway()
		svc := newCheckoutService(store, gw, true)

		resp, err := svc.CreateCheckoutSession(context.Background(), menteeID, checkoutReq())
		require.NoError(t, err)

		assert.Nil(t, resp.DiscountID)
		assert.Equal(t, entity.Money(10000), resp.AmountTotal)
		assert.Equal(t, int64(10000), gw.lastRequest().Item.UnitAmount)
	})

	t.Run("falls back to next ranked discount", func(t *testing.T) {
		store := seededStore(t)
		store.addDiscount(amountOff(3, 20000))
		store.addDiscount(percentOff(1, 20))
		gw := newFakeGateway()
		svc := newCheckoutService(store, gw, true)

		resp, err := svc.CreateCheckoutSession(context.Background(), menteeID, checkoutReq())
		require.NoError(t, err)

		require.NotNil(t, resp.DiscountID)
		assert.Equal(t, int64(1), *resp.DiscountID)
		assert.Equal(t, entity.Money(8000), resp.AmountTotal)

		meta, err := DecodeBookingMetadata(gw.lastRequest().Metadata)
		require.NoError(t, err)
		id, _ := meta.Discount.Get()
		assert.Equal(t, int64(1), id)
	})
}

func TestCreateCheckoutSessionExplicitDiscount(t *testing.T) {
	store := seededStore(t)
	store.addDiscount(percentOff(1, 20))
	store.addDiscount(amountOff(2, 3000))
	gw := newFakeGateway()
	svc := newCheckoutService(store, gw, true)

	req := checkoutReq()
	id := int64(1)
	req.DiscountID = &id

	resp, err := svc.CreateCheckoutSession(context.Background(), menteeID, req)
	require.NoError(t, err)
	assert.Equal(t, entity.Money(8000), resp.AmountTotal)

	missing := int64(99)
	req.DiscountID = &missing
	_, err = svc.CreateCheckoutSession(context.Background(), menteeID, req)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestCreateCheckoutSessionRejectsRedeemedDiscount(t *testing.T) {
	store := seededStore(t)
	store.addDiscount(amountOff(2, 3000))
	require.NoError(t, store.repo().Booking.Create(context.Background(), &entity.Booking{
		ID: uuid.New(), MenteeID: menteeID, PlanID: planID, InvoiceID: uuid.New(), Discount: entity.DiscountID(2),
	}))
	svc := newCheckoutService(store, newFakeGateway(), false)

	req := checkoutReq()
	id := int64(2)
	req.DiscountID = &id

	_, err := svc.CreateCheckoutSession(context.Background(), menteeID, req)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestCreateCheckoutSessionValidationSequence(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, s *memStore)
		mutate  func(r *request.CreateCheckoutSessionRequest)
		wantErr error
	}{
		{
			name:    "plan of another mentor",
			mutate:  func(r *request.CreateCheckoutSessionRequest) { r.MentorID = otherMentorID },
			wantErr: ErrNotFound,
		},
		{
			name:    "unknown plan",
			mutate:  func(r *request.CreateCheckoutSessionRequest) { r.PlanID = 404 },
			wantErr: ErrNotFound,
		},
		{
			name: "slot does not exist",
			mutate: func(r *request.CreateCheckoutSessionRequest) {
				r.SlotStartTime, r.SlotEndTime = "2025-12-01T15:00:00", "2025-12-01T16:00:00"
			},
			wantErr: ErrSlotUnavailable,
		},
		{
			name:    "slot already booked",
			setup:   func(t *testing.T, s *memStore) { s.addSlot(nineToTen(t), entity.SlotStatusBooked) },
			wantErr: ErrSlotUnavailable,
		},
		{
			name:    "slot cancelled",
			setup:   func(t *testing.T, s *memStore) { s.addSlot(nineToTen(t), entity.SlotStatusCancelled) },
			wantErr: ErrSlotUnavailable,
		},
		{
			name: "slot in the past",
			setup: func(t *testing.T, s *memStore) {
				s.addSlot(slotKey(t, time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC), time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)), entity.SlotStatusAvailable)
			},
			mutate: func(r *request.CreateCheckoutSessionRequest) {
				r.SlotStartTime, r.SlotEndTime = "2025-11-01T09:00:00", "2025-11-01T10:00:00"
			},
			wantErr: ErrSlotUnavailable,
		},
		{
			name:    "malformed timestamp",
			mutate:  func(r *request.CreateCheckoutSessionRequest) { r.SlotStartTime = "nine o'clock" },
			wantErr: ErrValidation,
		},
		{
			name:    "missing mentor",
			mutate:  func(r *request.CreateCheckoutSessionRequest) { r.MentorID = 0 },
			wantErr: ErrValidation,
		},
		{
			name: "discount makes it free",
			setup: func(t *testing.T, s *memStore) {
				s.addDiscount(amountOff(3, 20000))
			},
			mutate: func(r *request.CreateCheckoutSessionRequest) {
				id := int64(3)
				r.DiscountID = &id
			},
			wantErr: ErrZeroAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t)
			if tt.setup != nil {
				tt.setup(t, store)
			}
			gw := newFakeGateway()
			svc := newCheckoutService(store, gw, false)

			req := checkoutReq()
			if tt.mutate != nil {
				tt.mutate(req)
			}

			_, err := svc.CreateCheckoutSession(context.Background(), menteeID, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, gw.requests, "no provider session on a rejected request")
		})
	}
}

func TestCreateCheckoutSessionProviderFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = errors.New("stripe: connection refused")
	svc := newCheckoutService(seededStore(t), gw, false)

	_, err := svc.CreateCheckoutSession(context.Background(), menteeID, checkoutReq())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestIdempotencyKeyIsStable(t *testing.T) {
	version := at(8, 0)
	md := sampleMetadata().Encode()
	assert.Equal(t, idempotencyKey(md, version), idempotencyKey(sampleMetadata().Encode(), version))

	md["message"] = "different"
	assert.NotEqual(t, idempotencyKey(sampleMetadata().Encode(), version), idempotencyKey(md, version))

	assert.NotEqual(t, idempotencyKey(sampleMetadata().Encode(), version),
		idempotencyKey(sampleMetadata().Encode(), version.Add(time.Second)))
}

func TestCheckoutRetryReusesKeyUntilSlotIsReleased(t *testing.T) {
	store := seededStore(t)
	gw := newFakeGateway()
	svc := newCheckoutService(store, gw, false)
	ctx := context.Background()

	_, err := svc.CreateCheckoutSession(ctx, menteeID, checkoutReq())
	require.NoError(t, err)
	first := gw.lastRequest().IdempotencyKey

	_, err = svc.CreateCheckoutSession(ctx, menteeID, checkoutReq())
	require.NoError(t, err)
	assert.Equal(t, first, gw.lastRequest().IdempotencyKey)

	// booked by this mentee, then handed back to the calendar
	key := nineToTen(t)
	require.NoError(t, store.repo().Slot.Claim(ctx, key))
	require.NoError(t, store.repo().Slot.Transition(ctx, key,
		[]entity.SlotStatus{entity.SlotStatusBooked}, entity.SlotStatusAvailable))

	_, err = svc.CreateCheckoutSession(ctx, menteeID, checkoutReq())
	require.NoError(t, err)
	assert.NotEqual(t, first, gw.lastRequest().IdempotencyKey)
}

func TestGetCheckoutStatus(t *testing.T) {
	store := seededStore(t)
	gw := newFakeGateway()
	notifier := &recordingNotifier{}
	checkout := newCheckoutService(store, gw, false)
	webhook := newWebhookService(store, gw, notifier)

	pending, err := checkout.GetCheckoutStatus(context.Background(), menteeID, "cs_live_1")
	require.NoError(t, err)
	assert.Equal(t, response.CheckoutStatusPending, pending.Status)
	assert.Nil(t, pending.Invoice)

	payload := gw.register(paidEvent("evt_1", "cs_live_1", sampleMetadataNoDiscount()))
	_, err = webhook.HandleEvent(context.Background(), payload, validSignature)
	require.NoError(t, err)

	done, err := checkout.GetCheckoutStatus(context.Background(), menteeID, "cs_live_1")
	require.NoError(t, err)
	assert.Equal(t, response.CheckoutStatusConfirmed, done.Status)
	require.NotNil(t, done.Invoice)
	require.NotNil(t, done.Meeting)
	assert.Equal(t, entity.Money(10000), done.Invoice.AmountTotal)
	assert.Equal(t, entity.MeetingStatusPending, done.Meeting.Status)

	_, err = checkout.GetCheckoutStatus(context.Background(), otherMenteeID, "cs_live_1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = checkout.GetCheckoutStatus(context.Background(), menteeID, " ")
	assert.ErrorIs(t, err, ErrValidation)
}
