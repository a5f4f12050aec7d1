package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/pkg/mailer"
	"mentor-booking/pkg/metrics"
	"mentor-booking/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memStore is an in-memory stand-in for the database. A transaction holds
// the store lock for its whole run and restores a snapshot on error, which
// gives the same all-or-nothing and serialization behaviour the services
// rely on from Postgres.
type memStore struct {
	mu sync.Mutex

	users     map[int64]*entity.User
	plans     map[int64]*entity.Plan
	slots     map[string]*entity.Slot
	discounts map[int64]*entity.Discount
	invoices  map[uuid.UUID]*entity.Invoice
	bookings  map[uuid.UUID]*entity.Booking
	meetings  map[uuid.UUID]*entity.Meeting

	// failMeetingInsert makes Meeting.Create fail when set.
	failMeetingInsert error
	// afterClaim runs inside the transaction right after a successful claim.
	afterClaim func()
	// writes stamps updated_at so every slot transition moves it forward.
	writes int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]*entity.User{},
		plans:     map[int64]*entity.Plan{},
		slots:     map[string]*entity.Slot{},
		discounts: map[int64]*entity.Discount{},
		invoices:  map[uuid.UUID]*entity.Invoice{},
		bookings:  map[uuid.UUID]*entity.Booking{},
		meetings:  map[uuid.UUID]*entity.Meeting{},
	}
}

func (s *memStore) repo() *repository.Repository {
	return s.view(false)
}

func (s *memStore) view(inTx bool) *repository.Repository {
	return &repository.Repository{
		User:     memUsers{s, inTx},
		Plan:     memPlans{s, inTx},
		Slot:     memSlots{s, inTx},
		Discount: memDiscounts{s, inTx},
		Invoice:  memInvoices{s, inTx},
		Booking:  memBookings{s, inTx},
		Meeting:  memMeetings{s, inTx},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(repo *repository.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s.view(true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type memSnapshot struct {
	slots     map[string]entity.Slot
	discounts map[int64]entity.Discount
	invoices  map[uuid.UUID]*entity.Invoice
	bookings  map[uuid.UUID]*entity.Booking
	meetings  map[uuid.UUID]entity.Meeting
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		slots:     map[string]entity.Slot{},
		discounts: map[int64]entity.Discount{},
		invoices:  map[uuid.UUID]*entity.Invoice{},
		bookings:  map[uuid.UUID]*entity.Booking{},
		meetings:  map[uuid.UUID]entity.Meeting{},
	}
	for k, v := range s.slots {
		snap.slots[k] = *v
	}
	for k, v := range s.discounts {
		snap.discounts[k] = *v
	}
	for k, v := range s.invoices {
		snap.invoices[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.meetings {
		snap.meetings[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.slots = map[string]*entity.Slot{}
	for k, v := range snap.slots {
		s.slots[k] = &v
	}
	s.discounts = map[int64]*entity.Discount{}
	for k, v := range snap.discounts {
		s.discounts[k] = &v
	}
	s.invoices = snap.invoices
	s.bookings = snap.bookings
	s.meetings = map[uuid.UUID]*entity.Meeting{}
	for k, v := range snap.meetings {
		s.meetings[k] = &v
	}
}

// seeding and inspection helpers, all take the lock

func (s *memStore) addUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memStore) addPlan(p *entity.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = p
}

func (s *memStore) addSlot(key entity.SlotKey, status entity.SlotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key.String()] = &entity.Slot{SlotKey: key, Status: status}
}

func (s *memStore) addDiscount(d *entity.Discount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discounts[d.ID] = d
}

func (s *memStore) addMeeting(m *entity.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.ID] = m
}

func (s *memStore) slotStatus(key entity.SlotKey) (entity.SlotStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[key.String()]
	if !ok {
		return "", false
	}
	return slot.Status, true
}

func (s *memStore) discountUsed(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts[id].UsedCount
}

func (s *memStore) counts() (invoices, bookings, meetings int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invoices), len(s.bookings), len(s.meetings)
}

func (s *memStore) onlyMeeting(t *testing.T) *entity.Meeting {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.meetings) != 1 {
		t.Fatalf("want exactly one meeting, have %d", len(s.meetings))
	}
	for _, m := range s.meetings {
		cp := *m
		return &cp
	}
	return nil
}

type memUsers struct {
	s    *memStore
	inTx bool
}

func (r memUsers) FindByID(_ context.Context, id int64) (*entity.User, error) {
	defer r.s.lock(r.inTx)()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type memPlans struct {
	s    *memStore
	inTx bool
}

func (r memPlans) FindByID(_ context.Context, id int64) (*entity.Plan, error) {
	defer r.s.lock(r.inTx)()
	p, ok := r.s.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

type memSlots struct {
	s    *memStore
	inTx bool
}

func (r memSlots) Create(_ context.Context, slot *entity.Slot) error {
	defer r.s.lock(r.inTx)()
	k := slot.SlotKey.String()
	if _, ok := r.s.slots[k]; ok {
		return fmt.Errorf("create slot %s: %w", slot.SlotKey, repository.ErrDuplicate)
	}
	cp := *slot
	r.s.slots[k] = &cp
	return nil
}

func (r memSlots) FindByKey(_ context.Context, key entity.SlotKey) (*entity.Slot, error) {
	defer r.s.lock(r.inTx)()
	slot, ok := r.s.slots[key.String()]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (r memSlots) filter(planID int64, status *entity.SlotStatus) []*entity.Slot {
	var out []*entity.Slot
	for _, slot := range r.s.slots {
		if slot.PlanID != planID {
			continue
		}
		if status != nil && slot.Status != *status {
			continue
		}
		cp := *slot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (r memSlots) ListByPlan(_ context.Context, planID int64, status *entity.SlotStatus, limit, offset int) ([]*entity.Slot, error) {
	defer r.s.lock(r.inTx)()
	all := r.filter(planID, status)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r memSlots) CountByPlan(_ context.Context, planID int64, status *entity.SlotStatus) (int64, error) {
	defer r.s.lock(r.inTx)()
	return int64(len(r.filter(planID, status))), nil
}

func (r memSlots) Claim(ctx context.Context, key entity.SlotKey) error {
	if err := r.Transition(ctx, key, []entity.SlotStatus{entity.SlotStatusAvailable}, entity.SlotStatusBooked); err != nil {
		return err
	}
	if r.s.afterClaim != nil {
		r.s.afterClaim()
	}
	return nil
}

func (r memSlots) Transition(_ context.Context, key entity.SlotKey, from []entity.SlotStatus, to entity.SlotStatus) error {
	defer r.s.lock(r.inTx)()
	slot, ok := r.s.slots[key.String()]
	if !ok {
		return fmt.Errorf("transition slot %s: %w", key, repository.ErrSlotNotAvailable)
	}
	for _, st := range from {
		if slot.Status == st {
			r.s.writes++
			slot.Status = to
			slot.UpdatedAt = testNow.Add(time.Duration(r.s.writes) * time.Second)
			return nil
		}
	}
	return fmt.Errorf("transition slot %s: %w", key, repository.ErrSlotNotAvailable)
}

type memDiscounts struct {
	s    *memStore
	inTx bool
}

func (r memDiscounts) FindByID(_ context.Context, id int64) (*entity.Discount, error) {
	defer r.s.lock(r.inTx)()
	d, ok := r.s.discounts[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r memDiscounts) FindUsable(_ context.Context, now time.Time) ([]*entity.Discount, error) {
	defer r.s.lock(r.inTx)()
	var out []*entity.Discount
	for _, d := range r.s.discounts {
		if d.IsUsable(now) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memDiscounts) IncrementUsage(_ context.Context, id int64) error {
	defer r.s.lock(r.inTx)()
	d, ok := r.s.discounts[id]
	if !ok || d.UsedCount >= d.UsageLimit {
		return fmt.Errorf("increment discount %d: %w", id, repository.ErrDiscountLimitReached)
	}
	d.UsedCount++
	return nil
}

type memInvoices struct {
	s    *memStore
	inTx bool
}

func (r memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	defer r.s.lock(r.inTx)()
	for _, existing := range r.s.invoices {
		if existing.StripeSessionID == inv.StripeSessionID {
			return fmt.Errorf("create invoice: %w", repository.ErrDuplicate)
		}
	}
	cp := *inv
	r.s.invoices[inv.ID] = &cp
	return nil
}

func (r memInvoices) FindByID(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	defer r.s.lock(r.inTx)()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r memInvoices) FindByStripeSessionID(_ context.Context, sessionID string) (*entity.Invoice, error) {
	defer r.s.lock(r.inTx)()
	for _, inv := range r.s.invoices {
		if inv.StripeSessionID == sessionID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

type memBookings struct {
	s    *memStore
	inTx bool
}

func (r memBookings) Create(_ context.Context, b *entity.Booking) error {
	defer r.s.lock(r.inTx)()
	cp := *b
	r.s.bookings[b.ID] = &cp
	return nil
}

func (r memBookings) FindByInvoiceID(_ context.Context, invoiceID uuid.UUID) (*entity.Booking, error) {
	defer r.s.lock(r.inTx)()
	for _, b := range r.s.bookings {
		if b.InvoiceID == invoiceID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memBookings) UsedDiscountIDs(_ context.Context, menteeID int64) (map[int64]struct{}, error) {
	defer r.s.lock(r.inTx)()
	used := map[int64]struct{}{}
	for _, b := range r.s.bookings {
		if id, ok := b.Discount.Get(); ok && b.MenteeID == menteeID {
			used[id] = struct{}{}
		}
	}
	return used, nil
}

func (r memBookings) HasUsedDiscount(ctx context.Context, menteeID, discountID int64) (bool, error) {
	used, err := r.UsedDiscountIDs(ctx, menteeID)
	if err != nil {
		return false, err
	}
	_, ok := used[discountID]
	return ok, nil
}

type memMeetings struct {
	s    *memStore
	inTx bool
}

func (r memMeetings) Create(_ context.Context, m *entity.Meeting) error {
	defer r.s.lock(r.inTx)()
	if r.s.failMeetingInsert != nil {
		return r.s.failMeetingInsert
	}
	cp := *m
	r.s.meetings[m.ID] = &cp
	return nil
}

func (r memMeetings) FindByID(_ context.Context, id uuid.UUID) (*entity.Meeting, error) {
	defer r.s.lock(r.inTx)()
	m, ok := r.s.meetings[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r memMeetings) FindByInvoiceID(_ context.Context, invoiceID uuid.UUID) (*entity.Meeting, error) {
	defer r.s.lock(r.inTx)()
	for _, m := range r.s.meetings {
		if m.InvoiceID == invoiceID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memMeetings) matching(filter repository.MeetingFilter) []*entity.Meeting {
	var out []*entity.Meeting
	for _, m := range r.s.meetings {
		if m.MenteeID != filter.UserID && m.Slot.MentorID != filter.UserID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot.Start.Before(out[j].Slot.Start) })
	return out
}

func (r memMeetings) ListByParticipant(_ context.Context, filter repository.MeetingFilter, limit, offset int) ([]*entity.Meeting, error) {
	defer r.s.lock(r.inTx)()
	all := r.matching(filter)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r memMeetings) CountByParticipant(_ context.Context, filter repository.MeetingFilter) (int64, error) {
	defer r.s.lock(r.inTx)()
	return int64(len(r.matching(filter))), nil
}

func (r memMeetings) update(id uuid.UUID, from []entity.MeetingStatus, apply func(m *entity.Meeting)) error {
	defer r.s.lock(r.inTx)()
	m, ok := r.s.meetings[id]
	if !ok {
		return repository.ErrStatusTransition
	}
	for _, st := range from {
		if m.Status == st {
			apply(m)
			return nil
		}
	}
	return repository.ErrStatusTransition
}

func (r memMeetings) UpdateLocation(_ context.Context, id uuid.UUID, location string, from []entity.MeetingStatus, to entity.MeetingStatus) error {
	return r.update(id, from, func(m *entity.Meeting) {
		m.Location = &location
		m.Status = to
	})
}

func (r memMeetings) UpdateStatus(_ context.Context, id uuid.UUID, from []entity.MeetingStatus, to entity.MeetingStatus) error {
	return r.update(id, from, func(m *entity.Meeting) {
		m.Status = to
	})
}

func (r memMeetings) HasActiveForSlot(_ context.Context, key entity.SlotKey) (bool, error) {
	defer r.s.lock(r.inTx)()
	for _, m := range r.s.meetings {
		if m.Slot.String() == key.String() && m.Status != entity.MeetingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

// fakeGateway serves webhook events registered by payload and records
// checkout requests.
type fakeGateway struct {
	mu        sync.Mutex
	requests  []payment.CheckoutRequest
	createErr error
	events    map[string]*payment.Event
	receipt   string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: map[string]*payment.Event{}, receipt: "https://pay.example.com/receipts/rcpt_1"}
}

const validSignature = "t=1,v1=ok"

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(g.requests))
	return &payment.CheckoutSession{
		ID:        id,
		URL:       "https://checkout.example.com/" + id,
		ExpiresAt: time.Date(2025, 11, 21, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != validSignature {
		return nil, fmt.Errorf("%w: no valid v1 signature", payment.ErrInvalidSignature)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	evt, ok := g.events[string(payload)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payload", payment.ErrMalformedEvent)
	}
	cp := *evt
	return &cp, nil
}

func (g *fakeGateway) ReceiptURL(context.Context, string) (string, error) {
	if g.receipt == "" {
		return "", errors.New("receipt unavailable")
	}
	return g.receipt, nil
}

// register stores evt and returns the payload that parses to it.
func (g *fakeGateway) register(evt *payment.Event) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	payload := fmt.Sprintf(`{"id":%q}`, evt.ID)
	g.events[payload] = evt
	return []byte(payload)
}

func (g *fakeGateway) lastRequest() payment.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []BookingCommitted
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, evt BookingCommitted) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// fixture data shared by the service tests

const (
	menteeID      int64 = 11
	otherMenteeID int64 = 12
	mentorID      int64 = 5
	otherMentorID int64 = 6
	adminID       int64 = 1
	planID        int64 = 9
)

var testNow = time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func at(hh, mm int) time.Time {
	return time.Date(2025, 12, 1, hh, mm, 0, 0, time.UTC)
}

func slotKey(t *testing.T, start, end time.Time) entity.SlotKey {
	t.Helper()
	key, err := entity.NewSlotKey(mentorID, planID, start, end)
	if err != nil {
		t.Fatalf("slot key: %v", err)
	}
	return key
}

func nineToTen(t *testing.T) entity.SlotKey {
	return slotKey(t, at(9, 0), at(10, 0))
}

func percentOff(id, pct int64) *entity.Discount {
	return &entity.Discount{
		ID: id, Name: fmt.Sprintf("%d%% off", pct), Type: entity.DiscountTypePercentage, Value: pct,
		StartDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
		Status:    entity.DiscountStatusActive, UsageLimit: 10,
	}
}

func amountOff(id int64, minor int64) *entity.Discount {
	d := percentOff(id, 0)
	d.Name = fmt.Sprintf("%s off", entity.Money(minor))
	d.Type = entity.DiscountTypeFixed
	d.Value = minor
	return d
}

// seededStore holds a mentee, two mentors, an admin, plan 9 of mentor 5
// (100.00 for 60 minutes) and an available slot 2025-12-01 09:00-10:00.
func seededStore(t *testing.T) *memStore {
	t.Helper()
	s := newMemStore()
	s.addUser(&entity.User{ID: menteeID, FullName: "Mia Mentee", Email: "mia@example.com", Role: entity.RoleMentee})
	s.addUser(&entity.User{ID: otherMenteeID, FullName: "Omar Mentee", Email: "omar@example.com", Role: entity.RoleMentee})
	s.addUser(&entity.User{ID: mentorID, FullName: "Max Mentor", Email: "max@example.com", Role: entity.RoleMentor})
	s.addUser(&entity.User{ID: otherMentorID, FullName: "Nia Mentor", Email: "nia@example.com", Role: entity.RoleMentor})
	s.addUser(&entity.User{ID: adminID, FullName: "Ada Admin", Email: "ada@example.com", Role: entity.RoleAdmin})
	s.addPlan(&entity.Plan{
		ID: planID, MentorID: mentorID, Type: entity.PlanTypeSession,
		Title: "Career coaching", Description: "One hour career review",
		Charge: 10000, DurationMinutes: 60,
	})
	s.addSlot(nineToTen(t), entity.SlotStatusAvailable)
	return s
}

func asMentee() Actor { return Actor{UserID: menteeID, Role: entity.RoleMentee} }
func asMentor() Actor { return Actor{UserID: mentorID, Role: entity.RoleMentor} }
func asAdmin() Actor { return Actor{UserID: adminID, Role: entity.RoleAdmin} }

func nopLog() *zap.Logger { return zap.NewNop() }

func newMetrics() *metrics.Metrics { return metrics.New() }
